// Package firmware opens the configured variable store and the boot manager
// on top of it.
package firmware

import (
	"fmt"

	"github.com/bmcpi/bootctl/internal/config"
	"github.com/bmcpi/bootctl/internal/firmware/manager"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
	"github.com/go-logr/logr"
)

// CloseFunc releases the resources held by an opened store.
type CloseFunc func() error

func noClose() error { return nil }

// OpenStore opens the variable store selected by cfg.Backend.
func OpenStore(cfg config.StoreConfig, logger logr.Logger) (varstore.VarStore, CloseFunc, error) {
	logger.V(1).Info("opening variable store", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendEfivarfs:
		return varstore.NewEfivarfsStore(cfg.EfivarsPath, logger), noClose, nil
	case config.BackendJSON:
		return varstore.NewJSONStore(cfg.JSONFile, logger), noClose, nil
	case config.BackendFirmware:
		img, err := varstore.OpenFirmwareImage(cfg.FirmwareFile, varstore.VirtFwVars{Path: cfg.VirtFwVars}, logger)
		if err != nil {
			return nil, nil, err
		}
		return img, img.Close, nil
	case config.BackendMemory:
		return varstore.NewMemoryStore(), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// CreateManager creates a boot manager on the store selected by cfg.
func CreateManager(cfg config.StoreConfig, logger logr.Logger) (*manager.BootManager, CloseFunc, error) {
	store, closeFn, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return manager.NewBootManager(store, logger), closeFn, nil
}
