package efi

import "github.com/google/uuid"

// EfiGlobalVariableGUID is the vendor namespace of the architecturally
// defined variables (BootOrder, BootNext, Boot####).
const EfiGlobalVariableGUID = "8be4df61-93ca-11d2-aa0d-00e098032b8c"

// EfiGlobalVariable is EfiGlobalVariableGUID in parsed form.
var EfiGlobalVariable = uuid.MustParse(EfiGlobalVariableGUID)

// Variable attributes, as stored in the first four bytes of an efivarfs file.
const (
	EFI_VARIABLE_NON_VOLATILE                          uint32 = 0x00000001
	EFI_VARIABLE_BOOTSERVICE_ACCESS                    uint32 = 0x00000002
	EFI_VARIABLE_RUNTIME_ACCESS                        uint32 = 0x00000004
	EFI_VARIABLE_HARDWARE_ERROR_RECORD                 uint32 = 0x00000008
	EFI_VARIABLE_AUTHENTICATED_WRITE_ACCESS            uint32 = 0x00000010
	EFI_VARIABLE_TIME_BASED_AUTHENTICATED_WRITE_ACCESS uint32 = 0x00000020
	EFI_VARIABLE_APPEND_WRITE                          uint32 = 0x00000040
)

// DefaultBootVariableAttrs are applied when a boot variable is created.
const DefaultBootVariableAttrs = EFI_VARIABLE_NON_VOLATILE |
	EFI_VARIABLE_BOOTSERVICE_ACCESS |
	EFI_VARIABLE_RUNTIME_ACCESS

// Names of the boot manager variables.
const (
	BootOrderName = "BootOrder"
	BootNextName  = "BootNext"

	// BootEntryPrefix is the namespace prefix of Boot#### load options.
	BootEntryPrefix = "Boot"
)
