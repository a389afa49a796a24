package manager

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
)

// GetBootNext returns the one-shot boot entry. set is false when BootNext
// does not exist, which is distinct from BootNext being 0000.
func (m *BootManager) GetBootNext() (id efi.BootID, set bool, err error) {
	data, err := m.store.GetVariable(efi.BootNextName, efi.EfiGlobalVariable)
	if err != nil {
		if errors.Is(err, varstore.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	if len(data) < 2 {
		return 0, false, fmt.Errorf("%w: invalid BootNext data length %d", efi.ErrDecode, len(data))
	}

	return efi.BootID(binary.LittleEndian.Uint16(data)), true, nil
}

// SetBootNext makes the entry named by token the one used on next boot.
// The entry must exist.
func (m *BootManager) SetBootNext(token string) error {
	if invalid, ok := m.ValidateEntries([]string{token}); !ok {
		return fmt.Errorf("%w: %s: boot entry inaccessible", ErrBadArgument, invalid)
	}

	id, err := efi.ParseBootID(token)
	if err != nil {
		return err
	}

	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, uint16(id))

	m.logger.Info("setting BootNext", "entry", id.String())
	return m.store.SetVariable(efi.BootNextName, efi.EfiGlobalVariable, data)
}
