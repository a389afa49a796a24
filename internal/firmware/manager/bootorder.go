package manager

import (
	"fmt"
	"strings"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
)

// GetBootOrder retrieves the current boot order. A missing BootOrder is an
// error, returned as the store reported it.
func (m *BootManager) GetBootOrder() ([]efi.BootID, error) {
	data, err := m.store.GetVariable(efi.BootOrderName, efi.EfiGlobalVariable)
	if err != nil {
		return nil, err
	}

	order, err := efi.DecodeBootOrder(data)
	if err != nil {
		return nil, err
	}

	m.logger.V(1).Info("read BootOrder", "entries", len(order))
	return order, nil
}

// SetBootOrder replaces the boot order with the entries named by tokens, in
// the given order. Duplicates are kept. Nothing is written unless every
// token is well formed and names an existing entry.
func (m *BootManager) SetBootOrder(tokens []string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("%w: empty boot order", ErrBadArgument)
	}

	if !CheckFormat(tokens) {
		return fmt.Errorf("%w: invalid boot order format", ErrBadArgument)
	}

	if invalid, ok := m.ValidateEntries(tokens); !ok {
		return fmt.Errorf("%w: %s: boot entry inaccessible", ErrBadArgument, invalid)
	}

	order := make([]efi.BootID, len(tokens))
	for i, token := range tokens {
		id, err := efi.ParseBootID(token)
		if err != nil {
			return err
		}
		order[i] = id
	}

	m.logger.Info("setting BootOrder", "order", FormatBootOrder(order))
	return m.store.SetVariable(efi.BootOrderName, efi.EfiGlobalVariable, efi.EncodeBootOrder(order))
}

// FormatBootOrder renders ids as "001f, 0020, 000a.": every entry but the
// last is followed by a comma, the last one by a period.
func FormatBootOrder(ids []efi.BootID) string {
	if len(ids) == 0 {
		return "empty."
	}

	var b strings.Builder
	for _, id := range ids[:len(ids)-1] {
		b.WriteString(id.String())
		b.WriteString(", ")
	}
	b.WriteString(ids[len(ids)-1].String())
	b.WriteString(".")
	return b.String()
}
