// Command bootctl views and edits the UEFI boot variables BootNext,
// BootOrder and the Boot#### entries.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
