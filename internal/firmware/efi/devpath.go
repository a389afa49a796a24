package efi

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/google/uuid"
)

// DeviceType represents the type of EFI device path element
type DeviceType uint8

const (
	DevTypeHardware DeviceType = 0x01
	DevTypeAcpi     DeviceType = 0x02
	DevTypeMessage  DeviceType = 0x03
	DevTypeMedia    DeviceType = 0x04
	DevTypeBBS      DeviceType = 0x05
	DevTypeEnd      DeviceType = 0x7f
)

// DeviceSubType represents the subtype of EFI device path element
type DeviceSubType uint8

// Hardware subtypes
const (
	DevSubTypePCI      DeviceSubType = 0x01
	DevSubTypeVendorHW DeviceSubType = 0x04
)

// ACPI subtypes
const (
	DevSubTypeACPI DeviceSubType = 0x01
	DevSubTypeGOP  DeviceSubType = 0x03
)

// Message subtypes
const (
	DevSubTypeSCSI  DeviceSubType = 0x02
	DevSubTypeUSB   DeviceSubType = 0x05
	DevSubTypeMAC   DeviceSubType = 0x0b
	DevSubTypeIPv4  DeviceSubType = 0x0c
	DevSubTypeIPv6  DeviceSubType = 0x0d
	DevSubTypeSATA  DeviceSubType = 0x12
	DevSubTypeISCSI DeviceSubType = 0x13
	DevSubTypeURI   DeviceSubType = 0x18
	DevSubTypeDNS   DeviceSubType = 0x1f
)

// Media subtypes
const (
	DevSubTypePartition  DeviceSubType = 0x01
	DevSubTypeFilePath   DeviceSubType = 0x04
	DevSubTypeFVFilename DeviceSubType = 0x06
	DevSubTypeFVName     DeviceSubType = 0x07
)

// End subtypes
const (
	DevSubTypeEndInstance DeviceSubType = 0x01
	DevSubTypeEndEntire   DeviceSubType = 0xff
)

const devicePathHeaderSize = 4

// DevicePathNode is one element of a device path.
type DevicePathNode struct {
	Type    DeviceType
	SubType DeviceSubType
	Data    []byte
}

// guidFromLE converts the mixed-endian on-disk GUID layout.
func guidFromLE(b []byte) (uuid.UUID, bool) {
	var u uuid.UUID
	if len(b) < 16 {
		return u, false
	}
	binary.BigEndian.PutUint32(u[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(u[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(u[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(u[8:], b[8:16])
	return u, true
}

// GUIDBytes returns the on-disk layout of u.
func GUIDBytes(u uuid.UUID) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:4], binary.BigEndian.Uint32(u[0:4]))
	binary.LittleEndian.PutUint16(b[4:6], binary.BigEndian.Uint16(u[4:6]))
	binary.LittleEndian.PutUint16(b[6:8], binary.BigEndian.Uint16(u[6:8]))
	copy(b[8:], u[8:])
	return b
}

func (n DevicePathNode) guidNode(label string) string {
	if u, ok := guidFromLE(n.Data); ok {
		return fmt.Sprintf("%s(%s)", label, u)
	}
	return fmt.Sprintf("%s(?)", label)
}

func (n DevicePathNode) fmtHW() string {
	switch {
	case n.SubType == DevSubTypePCI && len(n.Data) >= 2:
		return fmt.Sprintf("Pci(0x%x,0x%x)", n.Data[1], n.Data[0])
	case n.SubType == DevSubTypeVendorHW:
		return n.guidNode("VenHw")
	}
	return fmt.Sprintf("HardwarePath(0x%x)", n.SubType)
}

func (n DevicePathNode) fmtACPI() string {
	switch {
	case n.SubType == DevSubTypeACPI && len(n.Data) >= 8:
		hid := binary.LittleEndian.Uint32(n.Data[0:4])
		uid := binary.LittleEndian.Uint32(n.Data[4:8])
		if hid == 0x0a0341d0 {
			return fmt.Sprintf("PciRoot(0x%x)", uid)
		}
		return fmt.Sprintf("Acpi(0x%x,0x%x)", hid, uid)
	case n.SubType == DevSubTypeGOP && len(n.Data) >= 4:
		return fmt.Sprintf("AcpiAdr(0x%x)", binary.LittleEndian.Uint32(n.Data[0:4]))
	}
	return fmt.Sprintf("AcpiPath(0x%x)", n.SubType)
}

func (n DevicePathNode) fmtMsg() string {
	switch {
	case n.SubType == DevSubTypeSCSI && len(n.Data) >= 4:
		pun := binary.LittleEndian.Uint16(n.Data[0:2])
		lun := binary.LittleEndian.Uint16(n.Data[2:4])
		return fmt.Sprintf("Scsi(0x%x,0x%x)", pun, lun)
	case n.SubType == DevSubTypeUSB && len(n.Data) >= 2:
		return fmt.Sprintf("USB(0x%x,0x%x)", n.Data[0], n.Data[1])
	case n.SubType == DevSubTypeMAC && len(n.Data) >= 6:
		return fmt.Sprintf("MAC(%s)", strings.ReplaceAll(net.HardwareAddr(n.Data[:6]).String(), ":", ""))
	case n.SubType == DevSubTypeIPv4 && len(n.Data) >= 8:
		return fmt.Sprintf("IPv4(%s)", net.IP(n.Data[4:8]))
	case n.SubType == DevSubTypeIPv4:
		return "IPv4()"
	case n.SubType == DevSubTypeIPv6 && len(n.Data) >= 32:
		return fmt.Sprintf("IPv6(%s)", net.IP(n.Data[16:32]))
	case n.SubType == DevSubTypeIPv6:
		return "IPv6()"
	case n.SubType == DevSubTypeSATA && len(n.Data) >= 6:
		port := binary.LittleEndian.Uint16(n.Data[0:2])
		mult := binary.LittleEndian.Uint16(n.Data[2:4])
		lun := binary.LittleEndian.Uint16(n.Data[4:6])
		return fmt.Sprintf("Sata(0x%x,0x%x,0x%x)", port, mult, lun)
	case n.SubType == DevSubTypeISCSI && len(n.Data) >= 14:
		return fmt.Sprintf("iSCSI(%s)", strings.TrimRight(string(n.Data[14:]), "\x00"))
	case n.SubType == DevSubTypeURI:
		return fmt.Sprintf("Uri(%s)", string(n.Data))
	case n.SubType == DevSubTypeDNS:
		return "Dns()"
	}
	return fmt.Sprintf("Msg(0x%x)", n.SubType)
}

func (n DevicePathNode) fmtMedia() string {
	switch {
	case n.SubType == DevSubTypePartition && len(n.Data) >= 4:
		return fmt.Sprintf("HD(%d)", binary.LittleEndian.Uint32(n.Data[0:4]))
	case n.SubType == DevSubTypeFilePath:
		return UCS16ToUTF8(n.Data)
	case n.SubType == DevSubTypeFVFilename:
		return n.guidNode("FvFile")
	case n.SubType == DevSubTypeFVName:
		return n.guidNode("Fv")
	}
	return fmt.Sprintf("MediaPath(0x%x)", n.SubType)
}

func (n DevicePathNode) String() string {
	switch n.Type {
	case DevTypeHardware:
		return n.fmtHW()
	case DevTypeAcpi:
		return n.fmtACPI()
	case DevTypeMessage:
		return n.fmtMsg()
	case DevTypeMedia:
		return n.fmtMedia()
	}
	return fmt.Sprintf("Path(0x%x,0x%x)", n.Type, n.SubType)
}

// MarshalBinary encodes the node with its header. The node length must fit
// the 16-bit length field.
func (n DevicePathNode) MarshalBinary() ([]byte, error) {
	size, err := safecast.ToUint16(devicePathHeaderSize + len(n.Data))
	if err != nil {
		return nil, fmt.Errorf("device path node too large (%d bytes): %w", len(n.Data), err)
	}

	b := make([]byte, devicePathHeaderSize, int(size))
	b[0] = byte(n.Type)
	b[1] = byte(n.SubType)
	binary.LittleEndian.PutUint16(b[2:4], size)
	return append(b, n.Data...), nil
}

// DevicePath is a device path instance without its end node.
type DevicePath []DevicePathNode

// ParseDevicePath parses the first device path instance in data. Every
// node must fit inside data.
func ParseDevicePath(data []byte) (DevicePath, error) {
	var dp DevicePath
	for off := 0; off < len(data); {
		if len(data)-off < devicePathHeaderSize {
			return nil, fmt.Errorf("%w: truncated device path node at offset %d", ErrDecode, off)
		}
		size := int(binary.LittleEndian.Uint16(data[off+2 : off+4]))
		if size < devicePathHeaderSize || off+size > len(data) {
			return nil, fmt.Errorf("%w: invalid device path node length %d at offset %d", ErrDecode, size, off)
		}

		node := DevicePathNode{
			Type:    DeviceType(data[off]),
			SubType: DeviceSubType(data[off+1]),
			Data:    data[off+devicePathHeaderSize : off+size],
		}
		if node.Type == DevTypeEnd {
			return dp, nil
		}
		dp = append(dp, node)
		off += size
	}
	return dp, nil
}

// MarshalBinary encodes the path followed by an end node.
func (dp DevicePath) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, n := range append(dp[:len(dp):len(dp)], DevicePathNode{Type: DevTypeEnd, SubType: DevSubTypeEndEntire}) {
		nb, err := n.MarshalBinary()
		if err != nil {
			return nil, err
		}
		b = append(b, nb...)
	}
	return b, nil
}

func (dp DevicePath) String() string {
	parts := make([]string, len(dp))
	for i, n := range dp {
		parts[i] = n.String()
	}
	return strings.Join(parts, "/")
}

// FilePathNode returns a media file path node for path.
func FilePathNode(path string) DevicePathNode {
	return DevicePathNode{Type: DevTypeMedia, SubType: DevSubTypeFilePath, Data: UTF8ToUCS16(path)}
}

// FvFileNode returns a firmware volume file node for guid.
func FvFileNode(guid uuid.UUID) DevicePathNode {
	return DevicePathNode{Type: DevTypeMedia, SubType: DevSubTypeFVFilename, Data: GUIDBytes(guid)}
}

// FvNode returns a firmware volume node for guid.
func FvNode(guid uuid.UUID) DevicePathNode {
	return DevicePathNode{Type: DevTypeMedia, SubType: DevSubTypeFVName, Data: GUIDBytes(guid)}
}

// URINode returns a messaging URI node.
func URINode(uri string) DevicePathNode {
	return DevicePathNode{Type: DevTypeMessage, SubType: DevSubTypeURI, Data: []byte(uri)}
}
