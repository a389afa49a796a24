package main

import (
	"fmt"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/spf13/cobra"
)

type bootNextOutput struct {
	Set      bool        `json:"set"`
	BootNext *efi.BootID `json:"bootNext,omitempty"`
}

func newBootNextCmd(t *commandTable) *cobra.Command {
	return &cobra.Command{
		Use:   "bootnext [bootnum]",
		Short: "View or edit the UEFI BootNext variable",
		Long: `View or edit the UEFI BootNext variable.

By default, prints the value of BootNext. To edit, provide a boot entry in
hexadecimal form (e.g. 001F).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return t.manager.SetBootNext(args[0])
			}
			return t.printBootNext(cmd)
		},
	}
}

func (t *commandTable) printBootNext(cmd *cobra.Command) error {
	id, set, err := t.manager.GetBootNext()
	if err != nil {
		return err
	}

	res := bootNextOutput{Set: set}
	if set {
		res.BootNext = &id
	}
	if ok, err := t.writeStructured(cmd.OutOrStdout(), res); ok {
		return err
	}

	if !set {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "BootNext: not set.")
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "BootNext: %s\n", id)
	return err
}
