package testgen

import (
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, s *Scenario, config asm.Config) (*code.CompiledCode, *Outcome) {
	t.Helper()

	cc, err := s.Compile(config)
	require.NoError(t, err)

	outcome, err := Execute(cc, link.DefaultOptions(), sim.DefaultOptions(), nil)
	require.NoError(t, err)
	return cc, outcome
}

func TestCatalog(t *testing.T) {
	expected := []string{
		"int-add", "load-long", "load-float", "load-double", "stack-slots", "native-call",
		"trap", "uncompress-pointer", "data-patch", "constant-pointer", "narrow-constant", "large-frame",
	}

	assert.Equal(t, expected, Names())
}

func TestScenarios(t *testing.T) {
	config := asm.DefaultConfig()

	for _, scenario := range Catalog {
		t.Run(scenario.Name, func(t *testing.T) {
			_, outcome := run(t, scenario, config)
			assert.NoError(t, scenario.Check(config, outcome))
		})
	}
}

func TestScenarios_NarrowBase(t *testing.T) {
	config := asm.DefaultConfig()
	config.NarrowOopBase = 0x0000200000000000
	config.NarrowOopShift = 4

	scenario, err := Find("narrow-constant")
	require.NoError(t, err)

	_, outcome := run(t, scenario, config)
	require.NoError(t, scenario.Check(config, outcome))
	assert.Equal(t, uint64(0x0000200000000000+0x00abcdef<<4), outcome.Result(registers.R0))
}

func TestScenarios_Sites(t *testing.T) {
	cases := []struct {
		name  string
		check func(t *testing.T, cc *code.CompiledCode)
	}{
		{"trap", func(t *testing.T, cc *code.CompiledCode) {
			assert.Len(t, code.SitesOf[code.ImplicitException](cc), 1)
		}},
		{"data-patch", func(t *testing.T, cc *code.CompiledCode) {
			assert.Len(t, code.SitesOf[code.DataItemPatch](cc), 1)
		}},
		{"constant-pointer", func(t *testing.T, cc *code.CompiledCode) {
			patches := code.SitesOf[code.DataPatch](cc)
			require.Len(t, patches, 1)
			assert.Equal(t, code.PatchKind_Pointer48, patches[0].Kind)
		}},
		{"load-double", func(t *testing.T, cc *code.CompiledCode) {
			patches := code.SitesOf[code.DataPatch](cc)
			require.Len(t, patches, 1)
			assert.Equal(t, code.PatchKind_LiteralLoad, patches[0].Kind)
		}},
		{"native-call", func(t *testing.T, cc *code.CompiledCode) {
			calls := code.SitesOf[code.Call](cc)
			require.Len(t, calls, 2)
			assert.Equal(t, uint64(HostAdd), calls[0].Target)
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			scenario, err := Find(c.name)
			require.NoError(t, err)

			cc, err := scenario.Compile(asm.DefaultConfig())
			require.NoError(t, err)
			c.check(t, cc)
		})
	}
}

func TestFind_Unknown(t *testing.T) {
	_, err := Find("does-not-exist")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestCheck_Mismatch(t *testing.T) {
	config := asm.DefaultConfig()

	intAdd, err := Find("int-add")
	require.NoError(t, err)
	trap, err := Find("trap")
	require.NoError(t, err)

	_, returned := run(t, intAdd, config)
	_, faulted := run(t, trap, config)

	assert.ErrorIs(t, trap.Check(config, returned), ErrUnexpectedResult)
	assert.ErrorIs(t, intAdd.Check(config, faulted), ErrUnexpectedResult)

	returned.State.X[0] = 41
	assert.ErrorIs(t, intAdd.Check(config, returned), ErrUnexpectedResult)
}

func TestExecute_StepLimit(t *testing.T) {
	scenario, err := Find("int-add")
	require.NoError(t, err)

	cc, err := scenario.Compile(asm.DefaultConfig())
	require.NoError(t, err)

	options := sim.DefaultOptions()
	options.MaxSteps = 2

	_, err = Execute(cc, link.DefaultOptions(), options, nil)
	assert.ErrorIs(t, err, sim.ErrStepLimit)
}
