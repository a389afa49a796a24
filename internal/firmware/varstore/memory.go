package varstore

import (
	"fmt"
	"slices"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/google/uuid"
)

// Variable is a variable held by a MemoryStore.
type Variable struct {
	VariableName
	Attr uint32
	Data []byte
}

// MemoryStore is an in-memory VarStore. Enumeration follows insertion order.
type MemoryStore struct {
	vars []*Variable
}

// NewMemoryStore returns a store holding copies of vars.
func NewMemoryStore(vars ...Variable) *MemoryStore {
	m := &MemoryStore{}
	for _, v := range vars {
		m.put(v.Name, v.GUID, v.Attr, v.Data)
	}
	return m
}

func (m *MemoryStore) find(name string, guid uuid.UUID) int {
	return slices.IndexFunc(m.vars, func(v *Variable) bool {
		return v.Name == name && v.GUID == guid
	})
}

func (m *MemoryStore) put(name string, guid uuid.UUID, attr uint32, data []byte) {
	data = slices.Clone(data)
	if i := m.find(name, guid); i >= 0 {
		m.vars[i].Data = data
		return
	}
	m.vars = append(m.vars, &Variable{
		VariableName: VariableName{Name: name, GUID: guid},
		Attr:         attr,
		Data:         data,
	})
}

// GetVariable implements VarStore.
func (m *MemoryStore) GetVariable(name string, guid uuid.UUID) ([]byte, error) {
	i := m.find(name, guid)
	if i < 0 {
		return nil, notFound(name, guid)
	}
	return slices.Clone(m.vars[i].Data), nil
}

// SetVariable implements VarStore.
func (m *MemoryStore) SetVariable(name string, guid uuid.UUID, data []byte) error {
	m.put(name, guid, efi.DefaultBootVariableAttrs, data)
	return nil
}

// Delete removes a variable.
func (m *MemoryStore) Delete(name string, guid uuid.UUID) error {
	i := m.find(name, guid)
	if i < 0 {
		return notFound(name, guid)
	}
	m.vars = slices.Delete(m.vars, i, i+1)
	return nil
}

// NextVariableName implements VarStore.
func (m *MemoryStore) NextVariableName(prev *VariableName) (VariableName, error) {
	next := 0
	if prev != nil {
		i := m.find(prev.Name, prev.GUID)
		if i < 0 {
			return VariableName{}, fmt.Errorf("enumeration cursor %s: %w", prev, ErrNotFound)
		}
		next = i + 1
	}
	if next >= len(m.vars) {
		return VariableName{}, ErrNoMoreVariables
	}
	return m.vars[next].VariableName, nil
}

// Variables returns copies of all variables in enumeration order.
func (m *MemoryStore) Variables() []Variable {
	out := make([]Variable, 0, len(m.vars))
	for _, v := range m.vars {
		out = append(out, Variable{VariableName: v.VariableName, Attr: v.Attr, Data: slices.Clone(v.Data)})
	}
	return out
}
