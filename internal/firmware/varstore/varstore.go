// Package varstore provides UEFI variable store backends.
package varstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a variable is not present in the store.
	ErrNotFound = errors.New("variable not found")

	// ErrNoMoreVariables ends an enumeration started with NextVariableName.
	ErrNoMoreVariables = errors.New("no more variables")
)

// VariableName identifies a variable by name and vendor namespace.
type VariableName struct {
	Name string
	GUID uuid.UUID
}

func (n VariableName) String() string {
	return n.Name + "-" + n.GUID.String()
}

// VarStore is the platform variable store.
type VarStore interface {
	// GetVariable returns the current value of a variable, or an error
	// wrapping ErrNotFound when it does not exist.
	GetVariable(name string, guid uuid.UUID) ([]byte, error)

	// SetVariable creates or replaces a variable. A new variable gets the
	// boot variable default attributes; an existing one keeps its own.
	SetVariable(name string, guid uuid.UUID, data []byte) error

	// NextVariableName returns the variable following prev in the store's
	// enumeration order. A nil prev starts the enumeration. The end is
	// signalled by ErrNoMoreVariables.
	NextVariableName(prev *VariableName) (VariableName, error)
}

func notFound(name string, guid uuid.UUID) error {
	return fmt.Errorf("%s-%s: %w", name, guid, ErrNotFound)
}
