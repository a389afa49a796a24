// Package manager implements the boot manager operations on a variable
// store: BootNext, BootOrder and the Boot#### catalog.
package manager

import (
	"errors"
	"strings"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
	"github.com/go-logr/logr"
)

// ErrBadArgument reports a malformed or inaccessible boot entry argument.
var ErrBadArgument = errors.New("bad argument")

// BootManager reads and edits the boot variables of one variable store.
// It is not safe for concurrent use.
type BootManager struct {
	store  varstore.VarStore
	logger logr.Logger
}

// NewBootManager creates a BootManager on store.
func NewBootManager(store varstore.VarStore, logger logr.Logger) *BootManager {
	return &BootManager{
		store:  store,
		logger: logger.WithName("boot-manager"),
	}
}

// entryKeys returns the variable names a token may refer to: the token as
// typed, zero padded to four digits, then its upper-case Boot#### form when
// that differs.
func entryKeys(token string) []string {
	if len(token) < 4 {
		token = strings.Repeat("0", 4-len(token)) + token
	}
	typed := efi.BootEntryPrefix + token
	if upper := efi.BootEntryPrefix + strings.ToUpper(token); upper != typed {
		return []string{typed, upper}
	}
	return []string{typed}
}

// readableEntry reports whether any key of token names a readable variable.
func (m *BootManager) readableEntry(token string) bool {
	for _, key := range entryKeys(token) {
		_, err := m.store.GetVariable(key, efi.EfiGlobalVariable)
		if err == nil {
			return true
		}
		m.logger.V(1).Info("boot entry inaccessible", "entry", key, "error", err.Error())
	}
	return false
}

// CheckFormat reports whether every token is at most four hex digits.
// An empty token passes and later parses as entry 0000.
func CheckFormat(tokens []string) bool {
	for _, token := range tokens {
		if len(token) > 4 {
			return false
		}
		for i := 0; i < len(token); i++ {
			if !efi.IsHexDigit(token[i]) {
				return false
			}
		}
	}
	return true
}

// ValidateEntries checks that every token names a readable Boot####
// variable. Tokens are checked in order; the first one that cannot be read
// is returned with ok set to false. Tokens are not checked lexically.
func (m *BootManager) ValidateEntries(tokens []string) (invalid string, ok bool) {
	for _, token := range tokens {
		if !m.readableEntry(token) {
			return token, false
		}
	}
	return "", true
}
