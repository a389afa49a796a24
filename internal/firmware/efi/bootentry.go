package efi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Load option attributes.
const (
	LOAD_OPTION_ACTIVE          uint32 = 0x00000001
	LOAD_OPTION_FORCE_RECONNECT uint32 = 0x00000002
	LOAD_OPTION_HIDDEN          uint32 = 0x00000008
	LOAD_OPTION_CATEGORY        uint32 = 0x00001F00

	LOAD_OPTION_CATEGORY_BOOT uint32 = 0x00000000
	LOAD_OPTION_CATEGORY_APP  uint32 = 0x00000100
)

// loadOptionHeaderSize covers the attribute and file path list length fields.
const loadOptionHeaderSize = 6

var (
	// ErrDecode is the root of every record decoding failure.
	ErrDecode = errors.New("decode error")

	// ErrRecordTooShort reports a load option without a complete header.
	ErrRecordTooShort = fmt.Errorf("%w: load option too short", ErrDecode)

	// ErrDescriptionUnterminated reports a description whose NUL terminator
	// is not inside the record.
	ErrDescriptionUnterminated = fmt.Errorf("%w: description not terminated", ErrDecode)
)

// LoadOption is the decoded form of a Boot#### variable.
//
// Only the header and the description are interpreted. The file path list
// and optional data are kept as raw bytes.
type LoadOption struct {
	Attr               uint32
	FilePathListLength uint16
	Description        string
	FilePathList       []byte
	OptionalData       []byte
}

// ParseLoadOption decodes data, which must be the complete value returned by
// the variable store. The description scan is bounded by len(data).
func ParseLoadOption(data []byte) (*LoadOption, error) {
	if len(data) < loadOptionHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrRecordTooShort, len(data))
	}

	opt := &LoadOption{
		Attr:               binary.LittleEndian.Uint32(data[0:4]),
		FilePathListLength: binary.LittleEndian.Uint16(data[4:6]),
	}

	desc, n, err := DecodeUCS16(data[loadOptionHeaderSize:])
	if err != nil {
		return nil, err
	}
	opt.Description = desc

	rest := data[loadOptionHeaderSize+n:]
	pathLen := int(opt.FilePathListLength)
	if pathLen > len(rest) {
		// The embedded length is not trusted over the store-reported size.
		opt.FilePathList = rest
		return opt, nil
	}

	opt.FilePathList = rest[:pathLen]
	if pathLen < len(rest) {
		opt.OptionalData = rest[pathLen:]
	}

	return opt, nil
}

// Bytes returns the binary representation of the load option.
func (opt *LoadOption) Bytes() []byte {
	var buf bytes.Buffer

	_ = binary.Write(&buf, binary.LittleEndian, opt.Attr)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(opt.FilePathList)))
	buf.Write(UTF8ToUCS16(opt.Description))
	buf.Write(opt.FilePathList)
	buf.Write(opt.OptionalData)

	return buf.Bytes()
}

// Active reports whether the firmware boot manager may use the option.
func (opt *LoadOption) Active() bool {
	return opt.Attr&LOAD_OPTION_ACTIVE != 0
}

// Hidden reports whether the option is hidden from boot menus.
func (opt *LoadOption) Hidden() bool {
	return opt.Attr&LOAD_OPTION_HIDDEN != 0
}

// Category returns the category bits of the attributes.
func (opt *LoadOption) Category() uint32 {
	return opt.Attr & LOAD_OPTION_CATEGORY
}

// DevicePath parses the first instance of the file path list.
func (opt *LoadOption) DevicePath() (DevicePath, error) {
	return ParseDevicePath(opt.FilePathList)
}
