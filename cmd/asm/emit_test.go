package asm

import (
	"bytes"
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func compile(t *testing.T, name string) []byte {
	t.Helper()

	scenario, err := testgen.Find(name)
	require.NoError(t, err)
	cc, err := scenario.Compile(asm.DefaultConfig())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeCode(&out, cc, "yaml"))
	return out.Bytes()
}

func TestWriteCode_Yaml(t *testing.T) {
	var report codeReport
	require.NoError(t, yaml.Unmarshal(compile(t, "data-patch"), &report))

	assert.Equal(t, "data-patch", report.Name)
	assert.Equal(t, "0xd503201f", report.Code[0])
	assert.Equal(t, []string{"0xdeaddead", "0xdeaddead", "0x00000000", "0x00000000"}, report.Data)

	kinds := map[string]int{}
	for _, site := range report.Sites {
		kinds[site.Kind]++
	}
	assert.Equal(t, 1, kinds["data_item_patch"])
	assert.Equal(t, 1, kinds["data_patch"])
	assert.Equal(t, 2, kinds["mark"])
	assert.Equal(t, 1, kinds["call"])
}

func TestWriteCode_Formats(t *testing.T) {
	scenario, err := testgen.Find("int-add")
	require.NoError(t, err)
	cc, err := scenario.Compile(asm.DefaultConfig())
	require.NoError(t, err)

	var hex bytes.Buffer
	require.NoError(t, writeCode(&hex, cc, "hex"))
	assert.Contains(t, hex.String(), "0x00000000: 0xd503201f")

	var bin bytes.Buffer
	require.NoError(t, writeCode(&bin, cc, "bin"))
	assert.Equal(t, append(append([]byte(nil), cc.Code...), cc.Data...), bin.Bytes())

	assert.Error(t, writeCode(&bytes.Buffer{}, cc, "elf"))
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"0xd503201f", "0x0201"}, words([]byte{0x1f, 0x20, 0x03, 0xd5, 0x01, 0x02}))
	assert.Empty(t, words(nil))
}
