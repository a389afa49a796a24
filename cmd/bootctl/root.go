package main

import (
	"fmt"
	"io"

	"github.com/bmcpi/bootctl/internal/config"
	"github.com/bmcpi/bootctl/internal/firmware"
	"github.com/bmcpi/bootctl/internal/firmware/manager"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandTable is the root command with its subcommands and the state they
// share during one execution.
type commandTable struct {
	root   *cobra.Command
	loader *config.Loader

	configFile string
	conf       *config.Config
	manager    *manager.BootManager
	closeStore firmware.CloseFunc
}

// newCommandTable registers the bootctl commands. teardown must be called
// once the command has run.
func newCommandTable(out, errOut io.Writer) (*commandTable, error) {
	t := &commandTable{loader: config.NewLoader()}

	t.root = &cobra.Command{
		Use:   "bootctl",
		Short: "View and edit UEFI boot variables",
		Long: `bootctl views and edits the UEFI boot configuration variables:
the one-shot BootNext entry, the BootOrder sequence and the Boot#### entries.

Variables are read from efivarfs by default. A virt-fw-vars JSON document,
an EDK2 firmware image or an in-memory store can be used instead.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: t.setup,
	}
	t.root.SetOut(out)
	t.root.SetErr(errOut)
	t.loader.SetLogOutput(errOut)

	flags := t.root.PersistentFlags()
	flags.StringVar(&t.configFile, "config", "", "Config file (default bootctl.yaml in /etc/bootctl, ~/.config/bootctl or .)")
	flags.String("store", config.BackendEfivarfs, "Variable store: efivarfs, json, firmware or memory")
	flags.String("efivars-path", "/sys/firmware/efi/efivars", "efivarfs mount point")
	flags.String("json-file", "efivars.json", "virt-fw-vars JSON document used by the json store")
	flags.String("firmware-file", "RPI_EFI.fd", "Firmware image used by the firmware store")
	flags.String("virt-fw-vars", "virt-fw-vars", "virt-fw-vars executable")
	flags.String("log-level", "info", "Log level: info or debug")
	flags.String("log-format", "json", "Log format: json or text")
	flags.StringP("output", "o", config.OutputText, "Output format: text, json or yaml")

	if err := t.loader.BindFlags(map[string]*pflag.Flag{
		"store.backend":       flags.Lookup("store"),
		"store.efivars_path":  flags.Lookup("efivars-path"),
		"store.json_file":     flags.Lookup("json-file"),
		"store.firmware_file": flags.Lookup("firmware-file"),
		"store.virt_fw_vars":  flags.Lookup("virt-fw-vars"),
		"log_level":           flags.Lookup("log-level"),
		"log_format":          flags.Lookup("log-format"),
		"output":              flags.Lookup("output"),
	}); err != nil {
		return nil, err
	}

	t.root.AddCommand(
		newBootNextCmd(t),
		newBootOrderCmd(t),
		newBootEntriesCmd(t),
	)

	return t, nil
}

// setup loads the configuration and opens the variable store before any
// subcommand runs.
func (t *commandTable) setup(cmd *cobra.Command, _ []string) error {
	t.loader.SetConfigFile(t.configFile)

	conf, err := t.loader.Load()
	if err != nil {
		return err
	}
	t.conf = conf

	if used := t.loader.ConfigFileUsed(); used != "" {
		conf.Log.V(1).Info("using config file", "file", used)
	}

	m, closeStore, err := firmware.CreateManager(conf.Store, conf.Log)
	if err != nil {
		return err
	}
	t.manager = m
	t.closeStore = closeStore

	return nil
}

// teardown releases the store and unregisters the subcommands.
func (t *commandTable) teardown() error {
	var err error
	if t.closeStore != nil {
		err = t.closeStore()
		t.closeStore = nil
	}
	t.root.RemoveCommand(t.root.Commands()...)
	t.manager = nil
	return err
}

func run(args []string, out, errOut io.Writer) int {
	t, err := newCommandTable(out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "bootctl: %v\n", err)
		return 1
	}

	t.root.SetArgs(args)
	err = t.root.Execute()

	if terr := t.teardown(); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		fmt.Fprintf(errOut, "bootctl: %v\n", err)
		return 1
	}
	return 0
}
