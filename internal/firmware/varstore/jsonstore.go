package varstore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// EfiVarJSON represents the JSON structure for an EFI variable, as written
// by virt-fw-vars --output-json.
type EfiVarJSON struct {
	Name string `json:"name"`
	GUID string `json:"guid"`
	Attr uint32 `json:"attr"`
	Data string `json:"data"`           // hex encoded
	Time string `json:"time,omitempty"` // hex encoded
}

// EfiVarListJSON represents the JSON structure for a list of EFI variables.
type EfiVarListJSON struct {
	Version   int          `json:"version"`
	Variables []EfiVarJSON `json:"variables"`
}

const efiVarListVersion = 2

// JSONStore is a VarStore backed by a virt-fw-vars JSON document. The file
// is read on every call and rewritten on every SetVariable.
type JSONStore struct {
	filename string
	logger   logr.Logger

	// afterWrite runs after the document has been saved.
	afterWrite func() error
}

// NewJSONStore uses the JSON document at filename. The file must exist.
func NewJSONStore(filename string, logger logr.Logger) *JSONStore {
	return &JSONStore{
		filename: filename,
		logger:   logger.WithName("json-store"),
	}
}

func (s *JSONStore) load() (*EfiVarListJSON, error) {
	raw, err := os.ReadFile(s.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.filename, err)
	}

	var doc EfiVarListJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.filename, err)
	}
	if doc.Version != efiVarListVersion {
		return nil, fmt.Errorf("%s: unsupported EfiVarList version: %d", s.filename, doc.Version)
	}

	// Lookups and the enumeration cursor resolve to the first match, so a
	// repeated name/GUID pair would make enumeration cycle.
	seen := make(map[string]struct{}, len(doc.Variables))
	for _, v := range doc.Variables {
		key := v.Name + "-" + strings.ToLower(v.GUID)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%s: duplicate variable %s", s.filename, key)
		}
		seen[key] = struct{}{}
	}

	return &doc, nil
}

func (s *JSONStore) save(doc *EfiVarListJSON) error {
	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filename, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.filename, err)
	}
	return nil
}

func findJSONVar(doc *EfiVarListJSON, name string, guid uuid.UUID) int {
	for i, v := range doc.Variables {
		if v.Name == name && strings.EqualFold(v.GUID, guid.String()) {
			return i
		}
	}
	return -1
}

// GetVariable implements VarStore.
func (s *JSONStore) GetVariable(name string, guid uuid.UUID) ([]byte, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	i := findJSONVar(doc, name, guid)
	if i < 0 {
		return nil, notFound(name, guid)
	}

	data, err := hex.DecodeString(doc.Variables[i].Data)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %s: %w", s.filename, name, err)
	}
	return data, nil
}

// SetVariable implements VarStore.
func (s *JSONStore) SetVariable(name string, guid uuid.UUID, data []byte) error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	encoded := hex.EncodeToString(data)
	if i := findJSONVar(doc, name, guid); i >= 0 {
		doc.Variables[i].Data = encoded
	} else {
		doc.Variables = append(doc.Variables, EfiVarJSON{
			Name: name,
			GUID: guid.String(),
			Attr: efi.DefaultBootVariableAttrs,
			Data: encoded,
		})
	}

	if err := s.save(doc); err != nil {
		return err
	}
	s.logger.V(1).Info("wrote variable", "name", name, "guid", guid.String(), "size", len(data))

	if s.afterWrite != nil {
		return s.afterWrite()
	}
	return nil
}

// NextVariableName implements VarStore. Variables are enumerated in
// document order; entries with an unparseable GUID are skipped.
func (s *JSONStore) NextVariableName(prev *VariableName) (VariableName, error) {
	doc, err := s.load()
	if err != nil {
		return VariableName{}, err
	}

	next := 0
	if prev != nil {
		i := findJSONVar(doc, prev.Name, prev.GUID)
		if i < 0 {
			return VariableName{}, fmt.Errorf("enumeration cursor %s: %w", prev, ErrNotFound)
		}
		next = i + 1
	}

	for ; next < len(doc.Variables); next++ {
		v := doc.Variables[next]
		guid, err := uuid.Parse(v.GUID)
		if err != nil {
			s.logger.V(1).Info("skipping variable with invalid guid", "name", v.Name, "guid", v.GUID)
			continue
		}
		return VariableName{Name: v.Name, GUID: guid}, nil
	}
	return VariableName{}, ErrNoMoreVariables
}
