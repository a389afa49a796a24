package varstore_test

import (
	"errors"
	"testing"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func globalVar(name string, data []byte) varstore.Variable {
	return varstore.Variable{
		VariableName: varstore.VariableName{Name: name, GUID: efi.EfiGlobalVariable},
		Attr:         efi.DefaultBootVariableAttrs,
		Data:         data,
	}
}

func TestMemoryStoreBasic(t *testing.T) {
	store := varstore.NewMemoryStore(globalVar("Boot0001", []byte{0x01}))

	data, err := store.GetVariable("Boot0001", efi.EfiGlobalVariable)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, data)

	// Returned data is a copy.
	data[0] = 0xFF
	data, err = store.GetVariable("Boot0001", efi.EfiGlobalVariable)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, data)

	_, err = store.GetVariable("Boot0002", efi.EfiGlobalVariable)
	assert.ErrorIs(t, err, varstore.ErrNotFound)

	require.NoError(t, store.SetVariable("BootNext", efi.EfiGlobalVariable, []byte{0x01, 0x00}))
	data, err = store.GetVariable("BootNext", efi.EfiGlobalVariable)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, data)

	require.NoError(t, store.Delete("BootNext", efi.EfiGlobalVariable))
	_, err = store.GetVariable("BootNext", efi.EfiGlobalVariable)
	assert.ErrorIs(t, err, varstore.ErrNotFound)
	assert.ErrorIs(t, store.Delete("BootNext", efi.EfiGlobalVariable), varstore.ErrNotFound)
}

func TestMemoryStoreEnumeration(t *testing.T) {
	store := varstore.NewMemoryStore(
		globalVar("BootOrder", []byte{0x01, 0x00}),
		globalVar("Boot0001", nil),
		globalVar("Timeout", []byte{0x05, 0x00}),
	)
	require.NoError(t, store.SetVariable("Boot0001", efi.EfiGlobalVariable, []byte{0x02}))
	require.NoError(t, store.SetVariable("BootNext", efi.EfiGlobalVariable, []byte{0x01, 0x00}))

	var names []string
	var prev *varstore.VariableName
	for {
		name, err := store.NextVariableName(prev)
		if errors.Is(err, varstore.ErrNoMoreVariables) {
			break
		}
		require.NoError(t, err)
		names = append(names, name.Name)
		prev = &name
	}

	// Updates keep their position, new variables are appended.
	assert.Equal(t, []string{"BootOrder", "Boot0001", "Timeout", "BootNext"}, names)
	assert.Len(t, store.Variables(), 4)
}
