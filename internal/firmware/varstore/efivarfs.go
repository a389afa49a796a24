package varstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

const (
	// DefaultEfivarsPath is where Linux mounts efivarfs.
	DefaultEfivarsPath = "/sys/firmware/efi/efivars"

	// guidTextLen is the length of a GUID in 8-4-4-4-12 form.
	guidTextLen = 36
)

// EfivarfsStore is a VarStore on top of a Linux efivarfs mount. Each
// variable is a file named <Name>-<GUID> holding four little-endian
// attribute bytes followed by the variable data.
type EfivarfsStore struct {
	fs     afero.Fs
	logger logr.Logger
}

// NewEfivarfsStore opens the efivarfs mounted at path.
func NewEfivarfsStore(path string, logger logr.Logger) *EfivarfsStore {
	return NewEfivarfsStoreFs(afero.NewBasePathFs(afero.NewOsFs(), path), logger)
}

// NewEfivarfsStoreFs uses fsys as the efivarfs root.
func NewEfivarfsStoreFs(fsys afero.Fs, logger logr.Logger) *EfivarfsStore {
	return &EfivarfsStore{
		fs:     fsys,
		logger: logger.WithName("efivarfs"),
	}
}

func variableFileName(name string, guid uuid.UUID) string {
	return name + "-" + guid.String()
}

// parseVariableFileName splits an efivarfs file name into its parts.
func parseVariableFileName(fileName string) (VariableName, bool) {
	sep := len(fileName) - guidTextLen - 1
	if sep < 1 || fileName[sep] != '-' {
		return VariableName{}, false
	}
	guid, err := uuid.Parse(fileName[sep+1:])
	if err != nil {
		return VariableName{}, false
	}
	return VariableName{Name: fileName[:sep], GUID: guid}, true
}

func (s *EfivarfsStore) readFile(fileName string) (attr uint32, data []byte, err error) {
	f, err := s.fs.Open(fileName)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return 0, nil, err
	}

	// According to UEFI specification the first four bytes of the contents are attributes.
	if len(raw) < 4 {
		return 0, nil, fmt.Errorf("%q contains %d bytes of data, it should have at least 4", fileName, len(raw))
	}

	return binary.LittleEndian.Uint32(raw[:4]), raw[4:], nil
}

// GetVariable implements VarStore.
func (s *EfivarfsStore) GetVariable(name string, guid uuid.UUID) ([]byte, error) {
	fileName := variableFileName(name, guid)

	_, data, err := s.readFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name, guid)
		}
		return nil, fmt.Errorf("error reading %q: %w", fileName, err)
	}

	s.logger.V(2).Info("read variable", "name", fileName, "size", len(data))
	return data, nil
}

// SetVariable implements VarStore. The immutable flag efivarfs sets on
// variables is lifted for the write and restored afterwards.
func (s *EfivarfsStore) SetVariable(name string, guid uuid.UUID, data []byte) (err error) {
	fileName := variableFileName(name, guid)

	attr := efi.DefaultBootVariableAttrs
	if cur, _, rerr := s.readFile(fileName); rerr == nil {
		attr = cur
	} else if !errors.Is(rerr, fs.ErrNotExist) {
		return fmt.Errorf("error reading %q: %w", fileName, rerr)
	}

	guard, err := openSafeguard(s.fs, fileName)
	if err != nil {
		return fmt.Errorf("error inspecting %q: %w", fileName, err)
	}
	defer func() { err = multierr.Append(err, guard.close()) }()

	wasProtected, err := guard.disable()
	if err != nil {
		return fmt.Errorf("error unprotecting %q: %w", fileName, err)
	}
	if wasProtected {
		defer func() { err = multierr.Append(err, guard.enable()) }()
	}

	// efivarfs requires attributes and data in a single write.
	buf := make([]byte, 4, 4+len(data))
	binary.LittleEndian.PutUint32(buf, attr)
	buf = append(buf, data...)

	f, err := s.fs.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %q: %w", fileName, err)
	}
	if _, err := f.Write(buf); err != nil {
		return multierr.Append(fmt.Errorf("error writing %q: %w", fileName, err), f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error writing %q: %w", fileName, err)
	}

	s.logger.V(1).Info("wrote variable", "name", fileName, "size", len(data), "attr", attr)
	return nil
}

// NextVariableName implements VarStore. Variables are enumerated in file
// name order.
func (s *EfivarfsStore) NextVariableName(prev *VariableName) (VariableName, error) {
	infos, err := afero.ReadDir(s.fs, ".")
	if err != nil {
		return VariableName{}, fmt.Errorf("error listing variables: %w", err)
	}

	names := make([]VariableName, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if n, ok := parseVariableFileName(info.Name()); ok {
			names = append(names, n)
		}
	}

	// The cursor matches exactly. Names differing only in case are distinct
	// variables.
	next := 0
	if prev != nil {
		next = -1
		for i, n := range names {
			if n == *prev {
				next = i + 1
				break
			}
		}
		if next < 0 {
			return VariableName{}, fmt.Errorf("enumeration cursor %s: %w", prev, ErrNotFound)
		}
	}

	if next >= len(names) {
		return VariableName{}, ErrNoMoreVariables
	}
	return names[next], nil
}
