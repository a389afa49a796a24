package varstore

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"
)

// DefaultVirtFwVars is the executable name of the virt-firmware tool.
const DefaultVirtFwVars = "virt-fw-vars"

// VirtFwVars runs the virt-fw-vars tool from the virt-firmware project.
type VirtFwVars struct {
	// Path is the executable, looked up in PATH when it has no separator.
	Path string
}

func (v VirtFwVars) Run(args ...string) ([]byte, error) {
	path := v.Path
	if path == "" {
		path = DefaultVirtFwVars
	}
	cmd := exec.Command(path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("error executing %s: %w\nOutput: %s", path, err, string(output))
	}
	return output, nil
}

// ReadVirtFwVars dumps the variable store of firmwareFile to fwVarsJsonFile.
func (v VirtFwVars) ReadVirtFwVars(firmwareFile string, fwVarsJsonFile string) error {
	_, err := v.Run("-i", firmwareFile, "--output-json", fwVarsJsonFile)
	return err
}

// SaveVirtFwVars writes the variables in fwVarsJsonFile into firmwareFile.
func (v VirtFwVars) SaveVirtFwVars(firmwareFile string, fwVarsJsonFile string) error {
	_, err := v.Run("--inplace", firmwareFile, "--set-json", fwVarsJsonFile)
	return err
}

// FirmwareImage is a VarStore over the variable store embedded in an
// EDK2/OVMF firmware image. Variables are exported to a temporary JSON
// document and every SetVariable is written back into the image.
type FirmwareImage struct {
	*JSONStore

	firmwareFile string
	tmpDir       string
}

// OpenFirmwareImage exports the variables of firmwareFile. Close removes
// the temporary export.
func OpenFirmwareImage(firmwareFile string, tool VirtFwVars, logger logr.Logger) (*FirmwareImage, error) {
	if _, err := os.Stat(firmwareFile); err != nil {
		return nil, fmt.Errorf("firmware file not found: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "bootctl-vars-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	jsonFile := filepath.Join(tmpDir, "vars.json")

	logger = logger.WithName("firmware-image")
	logger.V(1).Info("exporting variables", "firmware", firmwareFile, "json", jsonFile)
	if err := tool.ReadVirtFwVars(firmwareFile, jsonFile); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("failed to read variables from %s: %w", firmwareFile, err),
			os.RemoveAll(tmpDir),
		)
	}

	img := &FirmwareImage{
		JSONStore:    NewJSONStore(jsonFile, logger),
		firmwareFile: firmwareFile,
		tmpDir:       tmpDir,
	}
	img.afterWrite = func() error {
		logger.V(1).Info("updating firmware image", "firmware", firmwareFile)
		if err := tool.SaveVirtFwVars(firmwareFile, jsonFile); err != nil {
			return fmt.Errorf("failed to write variables to %s: %w", firmwareFile, err)
		}
		return nil
	}

	return img, nil
}

// Close removes the temporary variable export.
func (f *FirmwareImage) Close() error {
	return os.RemoveAll(f.tmpDir)
}
