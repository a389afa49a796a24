package main

import (
	"fmt"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/manager"
	"github.com/spf13/cobra"
)

type bootOrderOutput struct {
	BootOrder []efi.BootID `json:"bootOrder"`
}

func newBootOrderCmd(t *commandTable) *cobra.Command {
	return &cobra.Command{
		Use:   "bootorder [bootnum]...",
		Short: "View or edit the UEFI boot order",
		Long: `View or edit the UEFI boot order.

By default, prints the current boot order. To edit, provide a space-separated
list of boot entries in hexadecimal form (e.g. 001F 0020 000A).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return t.manager.SetBootOrder(args)
			}
			return t.printBootOrder(cmd)
		},
	}
}

func (t *commandTable) printBootOrder(cmd *cobra.Command) error {
	order, err := t.manager.GetBootOrder()
	if err != nil {
		return err
	}

	if order == nil {
		order = []efi.BootID{}
	}
	if ok, err := t.writeStructured(cmd.OutOrStdout(), bootOrderOutput{BootOrder: order}); ok {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Boot order: %s\n", manager.FormatBootOrder(order))
	return err
}
