package manager

import (
	"errors"
	"fmt"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
)

// BootEntry is a Boot#### variable with its decoded description.
type BootEntry struct {
	Name        string     `json:"name"`
	ID          efi.BootID `json:"id"`
	Description string     `json:"description"`
	Attributes  uint32     `json:"attributes"`
	Active      bool       `json:"active"`
	DevicePath  string     `json:"devicePath,omitempty"`
}

// WalkBootEntries enumerates the store and calls fn for every Boot####
// variable, in the store's enumeration order. A record that cannot be read
// or decoded aborts the walk, as does an error returned by fn.
func (m *BootManager) WalkBootEntries(fn func(BootEntry) error) error {
	var prev *varstore.VariableName
	for {
		name, err := m.store.NextVariableName(prev)
		if errors.Is(err, varstore.ErrNoMoreVariables) {
			return nil
		}
		if err != nil {
			return err
		}
		prev = &name

		if !efi.IsBootEntryName(name.Name) {
			continue
		}

		entry, err := m.readBootEntry(name)
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

func (m *BootManager) readBootEntry(name varstore.VariableName) (BootEntry, error) {
	// Absent here means the variable vanished after being listed.
	data, err := m.store.GetVariable(name.Name, name.GUID)
	if err != nil {
		return BootEntry{}, err
	}

	opt, err := efi.ParseLoadOption(data)
	if err != nil {
		return BootEntry{}, fmt.Errorf("%s: %w", name.Name, err)
	}

	id, err := efi.ParseBootID(name.Name[len(efi.BootEntryPrefix):])
	if err != nil {
		return BootEntry{}, err
	}

	entry := BootEntry{
		Name:        name.Name,
		ID:          id,
		Description: opt.Description,
		Attributes:  opt.Attr,
		Active:      opt.Active(),
	}

	// The device path is informational only.
	if dp, err := opt.DevicePath(); err == nil {
		entry.DevicePath = dp.String()
	} else {
		m.logger.V(1).Info("unreadable device path", "entry", name.Name, "error", err.Error())
	}

	m.logger.V(1).Info("read boot entry", "entry", name.Name, "size", len(data))
	return entry, nil
}

// BootEntries returns all Boot#### entries. See WalkBootEntries.
func (m *BootManager) BootEntries() ([]BootEntry, error) {
	var entries []BootEntry
	err := m.WalkBootEntries(func(e BootEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
