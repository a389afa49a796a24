package main

import (
	"fmt"

	"github.com/bmcpi/bootctl/internal/config"
	"github.com/bmcpi/bootctl/internal/firmware/manager"
	"github.com/spf13/cobra"
)

type bootEntriesOutput struct {
	BootEntries []manager.BootEntry `json:"bootEntries"`
}

func newBootEntriesCmd(t *commandTable) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bootentries",
		Short: "Print UEFI boot entries with their description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return t.printBootEntries(cmd, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the device path of each entry")
	return cmd
}

func (t *commandTable) printBootEntries(cmd *cobra.Command, verbose bool) error {
	out := cmd.OutOrStdout()

	if t.conf.Output != config.OutputText {
		entries, err := t.manager.BootEntries()
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []manager.BootEntry{}
		}
		_, err = t.writeStructured(out, bootEntriesOutput{BootEntries: entries})
		return err
	}

	// Entries are printed as they are enumerated; a bad record stops the
	// listing after the entries before it.
	if _, err := fmt.Fprintln(out, "Boot entries:"); err != nil {
		return err
	}
	return t.manager.WalkBootEntries(func(e manager.BootEntry) error {
		if verbose && e.DevicePath != "" {
			_, err := fmt.Fprintf(out, "%s: %s\t%s\n", e.Name, e.Description, e.DevicePath)
			return err
		}
		_, err := fmt.Fprintf(out, "%s: %s\n", e.Name, e.Description)
		return err
	})
}
