package efi

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/ccoveille/go-safecast"
)

// ErrOddLength reports a BootOrder value that is not a whole number of
// 16-bit entries.
var ErrOddLength = fmt.Errorf("%w: odd BootOrder length", ErrDecode)

// BootID is the 16-bit number of a Boot#### load option.
type BootID uint16

// String renders the id as four lowercase hex digits.
func (id BootID) String() string {
	return fmt.Sprintf("%04x", uint16(id))
}

func (id BootID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *BootID) UnmarshalText(text []byte) error {
	v, err := ParseBootID(string(text))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ParseBootID parses a hexadecimal token. An empty token parses to 0.
func ParseBootID(token string) (BootID, error) {
	if token == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(token, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid boot entry number %q: %w", token, err)
	}

	id, err := safecast.ToUint16(v)
	if err != nil {
		return 0, fmt.Errorf("invalid boot entry number %q: %w", token, err)
	}

	return BootID(id), nil
}

// BootEntryName returns the variable name of a load option, e.g. Boot001F.
func BootEntryName(id BootID) string {
	return fmt.Sprintf("%s%04X", BootEntryPrefix, uint16(id))
}

// IsBootEntryName reports whether name is exactly "Boot" followed by four
// hex digits of either case.
func IsBootEntryName(name string) bool {
	if len(name) != len(BootEntryPrefix)+4 || name[:len(BootEntryPrefix)] != BootEntryPrefix {
		return false
	}
	for i := len(BootEntryPrefix); i < len(name); i++ {
		if !IsHexDigit(name[i]) {
			return false
		}
	}
	return true
}

// IsHexDigit reports whether c is 0-9, a-f or A-F.
func IsHexDigit(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

// EncodeBootOrder serializes ids as consecutive little-endian uint16 values.
func EncodeBootOrder(ids []BootID) []byte {
	data := make([]byte, 2*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(id))
	}
	return data
}

// DecodeBootOrder parses a BootOrder value.
func DecodeBootOrder(data []byte) ([]BootID, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}

	ids := make([]BootID, len(data)/2)
	for i := range ids {
		ids[i] = BootID(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return ids, nil
}
