package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bmcpi/bootctl/internal/firmware/efi"
	"github.com/bmcpi/bootctl/internal/firmware/varstore"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func globalJSONVar(name string, data []byte) varstore.EfiVarJSON {
	return varstore.EfiVarJSON{
		Name: name,
		GUID: efi.EfiGlobalVariableGUID,
		Attr: efi.DefaultBootVariableAttrs,
		Data: hex.EncodeToString(data),
	}
}

func bootOption(desc string) []byte {
	opt := &efi.LoadOption{
		Attr:         efi.LOAD_OPTION_ACTIVE,
		Description:  desc,
		FilePathList: []byte{0x7F, 0xFF, 0x04, 0x00},
	}
	return opt.Bytes()
}

// writeVars writes a virt-fw-vars document and returns its path.
func writeVars(t *testing.T, vars ...varstore.EfiVarJSON) string {
	t.Helper()
	raw, err := json.Marshal(varstore.EfiVarListJSON{Version: 2, Variables: vars})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "vars.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func defaultVars() []varstore.EfiVarJSON {
	return []varstore.EfiVarJSON{
		globalJSONVar("Boot0001", bootOption("UEFI Shell")),
		globalJSONVar("BootOrder", []byte{0x01, 0x00, 0x02, 0x00}),
		globalJSONVar("Boot0002", bootOption("Network")),
		globalJSONVar("Boot00G1", bootOption("Not an entry")),
	}
}

func runBootctl(t *testing.T, varsFile string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--store", "json", "--json-file", varsFile}, args...)
	code = run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestCommandOutput(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	testCases := []struct {
		name string
		vars []varstore.EfiVarJSON
		args []string
	}{
		{name: "bootentries", vars: defaultVars(), args: []string{"bootentries"}},
		{name: "bootentries_json", vars: defaultVars(), args: []string{"bootentries", "-o", "json"}},
		{name: "bootentries_yaml", vars: defaultVars(), args: []string{"bootentries", "--output", "yaml"}},
		{name: "bootentries_empty", args: []string{"bootentries"}},
		{name: "bootorder", vars: defaultVars(), args: []string{"bootorder"}},
		{name: "bootorder_json", vars: defaultVars(), args: []string{"bootorder", "-o", "json"}},
		{name: "bootnext_not_set", vars: defaultVars(), args: []string{"bootnext"}},
		{name: "bootnext_not_set_json", vars: defaultVars(), args: []string{"bootnext", "-o", "json"}},
		{
			name: "bootnext",
			vars: append(defaultVars(), globalJSONVar("BootNext", []byte{0x02, 0x00})),
			args: []string{"bootnext"},
		},
		{
			name: "bootnext_zero",
			vars: append(defaultVars(), globalJSONVar("BootNext", []byte{0x00, 0x00})),
			args: []string{"bootnext"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, stderr, code := runBootctl(t, writeVars(t, tc.vars...), tc.args...)
			require.Equal(t, 0, code, stderr)
			g.Assert(t, tc.name, []byte(stdout))
		})
	}
}

func TestSetCommands(t *testing.T) {
	vars := writeVars(t, defaultVars()...)

	_, stderr, code := runBootctl(t, vars, "bootorder", "2", "0001", "0002")
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code := runBootctl(t, vars, "bootorder")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Boot order: 0002, 0001, 0002.\n", stdout)

	_, stderr, code = runBootctl(t, vars, "bootnext", "0001")
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code = runBootctl(t, vars, "bootnext")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "BootNext: 0001\n", stdout)

	lower := writeVars(t, append(defaultVars(), globalJSONVar("Bootab12", bootOption("Lower case")))...)
	_, stderr, code = runBootctl(t, lower, "bootorder", "ab12", "0001")
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code = runBootctl(t, lower, "bootorder")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Boot order: ab12, 0001.\n", stdout)
}

func TestCommandErrors(t *testing.T) {
	testCases := []struct {
		name    string
		vars    []varstore.EfiVarJSON
		args    []string
		message string
	}{
		{
			name:    "bootorder bad format",
			vars:    defaultVars(),
			args:    []string{"bootorder", "0001", "00002"},
			message: "bootctl: bad argument: invalid boot order format\n",
		},
		{
			name:    "bootorder missing entry",
			vars:    defaultVars(),
			args:    []string{"bootorder", "0001", "0003"},
			message: "bootctl: bad argument: 0003: boot entry inaccessible\n",
		},
		{
			name:    "bootnext missing entry",
			vars:    defaultVars(),
			args:    []string{"bootnext", "1f"},
			message: "bootctl: bad argument: 1f: boot entry inaccessible\n",
		},
		{
			name:    "bootorder absent",
			args:    []string{"bootorder"},
			message: "bootctl: BootOrder-8be4df61-93ca-11d2-aa0d-00e098032b8c: variable not found\n",
		},
		{
			name:    "bootnext too many arguments",
			vars:    defaultVars(),
			args:    []string{"bootnext", "0001", "0002"},
			message: "bootctl: accepts at most 1 arg(s), received 2\n",
		},
		{
			name:    "bootentries arguments",
			vars:    defaultVars(),
			args:    []string{"bootentries", "0001"},
			message: "bootctl: unknown command \"0001\" for \"bootctl bootentries\"\n",
		},
		{
			name:    "unknown output",
			vars:    defaultVars(),
			args:    []string{"bootorder", "-o", "xml"},
			message: "bootctl: config: unknown output format \"xml\"\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			vars := writeVars(t, tc.vars...)
			before, err := os.ReadFile(vars)
			require.NoError(t, err)

			stdout, stderr, code := runBootctl(t, vars, tc.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Equal(t, tc.message, stderr)

			after, err := os.ReadFile(vars)
			require.NoError(t, err)
			assert.Equal(t, before, after, "store must not be modified")
		})
	}
}

func TestBootEntriesStopsOnBadRecord(t *testing.T) {
	vars := writeVars(t,
		globalJSONVar("Boot0001", bootOption("UEFI Shell")),
		globalJSONVar("Boot0002", []byte{0x01, 0x00, 0x00, 0x00, 0x04, 0x00, 'N', 0x00}),
		globalJSONVar("Boot0003", bootOption("Disk")),
	)

	stdout, stderr, code := runBootctl(t, vars, "bootentries")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Boot entries:\nBoot0001: UEFI Shell\n", stdout)
	assert.Contains(t, stderr, "bootctl: Boot0002: ")
}

func TestCommandTableTeardown(t *testing.T) {
	var out, errOut bytes.Buffer

	table, err := newCommandTable(&out, &errOut)
	require.NoError(t, err)

	var names []string
	for _, c := range table.root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"bootnext", "bootorder", "bootentries"}, names)

	table.root.SetArgs([]string{"--store", "memory", "bootentries"})
	require.NoError(t, table.root.Execute())
	assert.Equal(t, "Boot entries:\n", out.String())

	require.NoError(t, table.teardown())
	assert.Empty(t, table.root.Commands())
	assert.Nil(t, table.manager)
}

func TestBootEntriesVerbose(t *testing.T) {
	path, err := efi.DevicePath{
		efi.FvNode(uuid.MustParse("7cb8bdc9-f8eb-4f34-aaea-3ee4af6516a1")),
		efi.FvFileNode(uuid.MustParse("7c04a583-9e3e-4f1c-ad65-e05268d0b4d1")),
	}.MarshalBinary()
	require.NoError(t, err)
	shell := &efi.LoadOption{
		Attr:         efi.LOAD_OPTION_ACTIVE,
		Description:  "UEFI Shell",
		FilePathList: path,
	}
	vars := writeVars(t,
		globalJSONVar("Boot0001", shell.Bytes()),
		globalJSONVar("Boot0002", bootOption("Empty path")),
	)

	stdout, stderr, code := runBootctl(t, vars, "bootentries", "-v")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Boot entries:\n"+
		"Boot0001: UEFI Shell\tFv(7cb8bdc9-f8eb-4f34-aaea-3ee4af6516a1)/FvFile(7c04a583-9e3e-4f1c-ad65-e05268d0b4d1)\n"+
		"Boot0002: Empty path\n", stdout)
}
