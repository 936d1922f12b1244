package tools

import (
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/testgen"
	"github.com/stretchr/testify/assert"
)

func TestModules(t *testing.T) {
	assert.Equal(t, []string{"aarch64.forms", "aarch64.registers", "aarch64.scenarios"}, moduleNames())

	for _, module := range moduleNames() {
		assert.NotEmpty(t, supportedModules[module](), module)
	}
}

func TestScenariosDocString(t *testing.T) {
	doc := scenariosDocString()

	for _, name := range testgen.Names() {
		assert.Contains(t, doc, name)
	}
}
