package efi_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoadOption(t *testing.T) {
	// Format: [Attrs uint32][DevPathLen uint16][Description UCS16 string][DevPath bytes][OptData]
	var buf bytes.Buffer

	attrs := efi.LOAD_OPTION_ACTIVE | efi.LOAD_OPTION_CATEGORY_BOOT

	devPath := []byte{
		0x01, 0x01, 0x06, 0x00, 0x00, 0x00, // PCI
		0x7F, 0xFF, 0x04, 0x00, // End path
	}

	optData := []byte{0x01, 0x02, 0x03, 0x04}

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, attrs))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(devPath))))
	buf.Write(efi.UTF8ToUCS16("Boot Entry Test"))
	buf.Write(devPath)
	buf.Write(optData)

	opt, err := efi.ParseLoadOption(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "Boot Entry Test", opt.Description)
	assert.Equal(t, uint16(len(devPath)), opt.FilePathListLength)
	assert.Equal(t, devPath, opt.FilePathList)
	assert.Equal(t, optData, opt.OptionalData)
	assert.True(t, opt.Active())
	assert.False(t, opt.Hidden())
	assert.Equal(t, efi.LOAD_OPTION_CATEGORY_BOOT, opt.Category())
}

func TestLoadOptionBytesRoundTrip(t *testing.T) {
	opt := &efi.LoadOption{
		Attr:         efi.LOAD_OPTION_ACTIVE | efi.LOAD_OPTION_HIDDEN | efi.LOAD_OPTION_CATEGORY_APP,
		Description:  "UEFI Shell",
		FilePathList: []byte{0x7F, 0xFF, 0x04, 0x00},
		OptionalData: []byte{0xAA, 0xBB},
	}

	parsed, err := efi.ParseLoadOption(opt.Bytes())
	require.NoError(t, err)

	assert.Equal(t, opt.Description, parsed.Description)
	assert.Equal(t, opt.FilePathList, parsed.FilePathList)
	assert.Equal(t, opt.OptionalData, parsed.OptionalData)
	assert.True(t, parsed.Hidden())
	assert.Equal(t, efi.LOAD_OPTION_CATEGORY_APP, parsed.Category())
}

func TestParseLoadOptionErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{
			name: "Empty",
			data: nil,
			err:  efi.ErrRecordTooShort,
		},
		{
			name: "Truncated Header",
			data: []byte{0x01, 0x00, 0x00, 0x00, 0x04},
			err:  efi.ErrRecordTooShort,
		},
		{
			name: "Header Only",
			data: []byte{0x01, 0x00, 0x00, 0x00, 0x04, 0x00},
			err:  efi.ErrDescriptionUnterminated,
		},
		{
			name: "Unterminated Description",
			data: []byte{0x01, 0x00, 0x00, 0x00, 0x04, 0x00, 'U', 0x00, 'E', 0x00, 'F', 0x00},
			err:  efi.ErrDescriptionUnterminated,
		},
		{
			name: "Unterminated Odd Tail",
			data: []byte{0x01, 0x00, 0x00, 0x00, 0x04, 0x00, 'U', 0x00, 0x00},
			err:  efi.ErrDescriptionUnterminated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opt, err := efi.ParseLoadOption(tc.data)
			assert.Nil(t, opt)
			assert.ErrorIs(t, err, tc.err)
			assert.ErrorIs(t, err, efi.ErrDecode)
		})
	}
}

func TestParseLoadOptionOversizedPathLength(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00, 0xFF, 0xFF, 'A', 0x00, 0x00, 0x00, 0x7F, 0xFF}

	opt, err := efi.ParseLoadOption(data)
	require.NoError(t, err)
	assert.Equal(t, "A", opt.Description)
	assert.Equal(t, uint16(0xFFFF), opt.FilePathListLength)
	assert.Equal(t, []byte{0x7F, 0xFF}, opt.FilePathList)
	assert.Nil(t, opt.OptionalData)
}
