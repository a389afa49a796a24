//go:build !linux

package varstore

import "github.com/spf13/afero"

// safeguard is a no-op where efivarfs inode flags do not exist.
type safeguard struct{}

func openSafeguard(afero.Fs, string) (*safeguard, error) { return nil, nil }

func (g *safeguard) disable() (bool, error) { return false, nil }

func (g *safeguard) enable() error { return nil }

func (g *safeguard) close() error { return nil }
