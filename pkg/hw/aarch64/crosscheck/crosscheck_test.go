package crosscheck

import (
	"testing"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/encoding"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"
)

func TestRun_DefaultCases(t *testing.T) {
	results, err := Run(nil)
	require.NoError(t, err)
	require.Len(t, results, len(Cases))

	for _, result := range results {
		assert.True(t, result.Match(), result.String())
	}

	assert.NoError(t, Verify(results))
}

func TestRun_ExpectedWords(t *testing.T) {
	expected := map[string]uint32{
		"nop":               encoding.NopWord,
		"add x1, x2, x3":    0x8b030041,
		"add x1, x2, #16":   0x91004041,
		"sub sp, sp, #32":   0xd10083ff,
		"mov x1, x2":        0xaa0203e1,
		"ldr x1, [x2, #16]": 0xf9400841,
		"str x1, [x2, #16]": 0xf9000841,
		"str d1, [x2, #16]": 0xfd000841,
		"fmov d2, x1":       0x9e670022,
	}

	results, err := Run(nil)
	require.NoError(t, err)

	for _, result := range results {
		word, ok := expected[result.Name]
		require.True(t, ok, result.Name)
		assert.Equal(t, word, result.Word, result.Name)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	wrong := Case{
		Name:   "add x1, x2, #17",
		Encode: func() uint32 { return encoding.AddImm(registers.R1, registers.R2, 17) },
		Reference: func(p *obj.Prog) {
			p.As = arm64.AADD
			p.From = constOperand(16)
			p.Reg = goRegister(registers.R2)
			p.To = regOperand(registers.R1)
		},
	}

	results, err := Run([]Case{wrong})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Match())

	err = Verify(results)
	assert.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, err.Error(), "expected 0x91004041")
}

func TestGoRegister(t *testing.T) {
	assert.Equal(t, int16(arm64.REGSP), goRegister(registers.SP))
	assert.Equal(t, int16(arm64.REGZERO), goRegister(registers.ZR))
	assert.Equal(t, int16(arm64.REG_R29), goRegister(registers.FP))
	assert.Equal(t, int16(arm64.REG_F9), goRegister(registers.V9))
}
