package efi

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

var ucs16Decoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// FindUCS16NullTerminator returns the byte offset of the first 16-bit NUL
// code unit in data, or -1 if data holds no complete NUL code unit.
// A trailing odd byte is never considered.
func FindUCS16NullTerminator(data []byte) int {
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return i
		}
	}
	return -1
}

// DecodeUCS16 converts a NUL-terminated UTF-16LE string at the start of data
// into UTF-8. The terminator must lie within data; the scan never looks past
// len(data). It returns the decoded text and the number of bytes consumed,
// terminator included.
func DecodeUCS16(data []byte) (string, int, error) {
	end := FindUCS16NullTerminator(data)
	if end < 0 {
		return "", 0, fmt.Errorf("%w: no terminator within %d bytes", ErrDescriptionUnterminated, len(data))
	}

	text, err := ucs16Decoding.NewDecoder().Bytes(data[:end])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return string(text), end + 2, nil
}

// UCS16ToUTF8 is the lenient form of DecodeUCS16: text after the first NUL
// is ignored and an unterminated input is decoded up to its last complete
// code unit.
func UCS16ToUTF8(data []byte) string {
	end := FindUCS16NullTerminator(data)
	if end < 0 {
		end = len(data) &^ 1
	}

	text, err := ucs16Decoding.NewDecoder().Bytes(data[:end])
	if err != nil {
		return ""
	}
	return string(text)
}

// UTF8ToUCS16 encodes s as NUL-terminated UTF-16LE. Encoding stops at the
// first NUL in s.
func UTF8ToUCS16(s string) []byte {
	units := utf16.Encode([]rune(s))

	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		if u == 0 {
			break
		}
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return append(out, 0, 0)
}
