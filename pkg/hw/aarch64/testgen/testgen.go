// Package testgen is a catalog of synthetic functions built with the assembler. Each
// scenario exercises one group of assembler operations and knows the result a run of the
// linked function must produce.
package testgen

import (
	"errors"
	"log/slog"
	"math"

	"github.com/Manu343726/a64asm/pkg/hw/aarch64/abi"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/asm"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/code"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/link"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/registers"
	"github.com/Manu343726/a64asm/pkg/hw/aarch64/sim"
	"github.com/Manu343726/a64asm/pkg/utils"
	"github.com/samber/lo"
)

var (
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrUnexpectedResult = errors.New("unexpected result")
)

// Address of the host function called by the native-call scenario. It adds x0 and x1
const HostAdd = 0x00007f0000002000

// Fixed heap base and shift of the uncompress-pointer scenario
const (
	uncompressBase  = 0x0000100000000000
	uncompressShift = 3
)

// VM constants the scenarios reference, by name
var Constants = link.ConstantTable{
	"object": 0x00007f0012345678,
	"klass":  0x12345678,
	"narrow": 0x00abcdef,
}

// Host functions reachable from the scenarios, by address
func HostFunctions() map[uint64]sim.HostFunction {
	return map[uint64]sim.HostFunction{
		HostAdd: func(state *sim.CPUState) error {
			state.X[0] += state.X[1]
			return nil
		},
	}
}

// Result a scenario run must produce
type Expectation struct {
	// Register holding the result, R0 or V0
	Register registers.Register
	Value    uint64
	// The run must stop at the implicit exception site instead of returning
	Fault bool
}

type Scenario struct {
	Name        string
	Description string
	Build       func(a *asm.Assembler) error
	// Expected result under the given assembler configuration
	Want func(config asm.Config) Expectation
}

func returns(value uint64) func(asm.Config) Expectation {
	return func(asm.Config) Expectation {
		return Expectation{Register: registers.R0, Value: value}
	}
}

func returnsFloat(bits uint64) func(asm.Config) Expectation {
	return func(asm.Config) Expectation {
		return Expectation{Register: registers.V0, Value: bits}
	}
}

// Every scenario, in catalog order
var Catalog = []*Scenario{
	{
		Name:        "int-add",
		Description: "adds two materialized 32 bit integers",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitIntRet(a.EmitIntAdd(a.EmitLoadInt(40), a.EmitLoadInt(2)))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(42),
	},
	{
		Name:        "load-long",
		Description: "materializes a 64 bit integer with movz and three movk",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitIntRet(a.EmitLoadLong(0x1122334455667788))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(0x1122334455667788),
	},
	{
		Name:        "load-float",
		Description: "loads a float constant from the data section",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			if err := a.EmitFloatRet(a.EmitLoadFloat(1.5)); err != nil {
				return err
			}
			a.EmitEpilogue()
			return nil
		},
		Want: returnsFloat(uint64(math.Float32bits(1.5))),
	},
	{
		Name:        "load-double",
		Description: "loads a double constant from the data section",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			if err := a.EmitFloatRet(a.EmitLoadDouble(math.Pi)); err != nil {
				return err
			}
			a.EmitEpilogue()
			return nil
		},
		Want: returnsFloat(math.Float64bits(math.Pi)),
	},
	{
		Name:        "stack-slots",
		Description: "spills an int, a long and a double to the frame and reloads the long",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitIntToStack(a.EmitLoadInt(0x11223344))
			slot := a.EmitLongToStack(a.EmitLoadLong(0x0102030405060708))
			a.EmitDoubleToStack(a.EmitLoadDouble(2.5))
			a.EmitIntRet(a.EmitLoadPointerAt(registers.SP, slot.OffsetIn(a.FrameSize())))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(0x0102030405060708),
	},
	{
		Name:        "native-call",
		Description: "calls a host function with the native calling convention",
		Build: func(a *asm.Assembler) error {
			args := []code.Value{code.LongValue(40), code.LongValue(2)}

			sig, err := abi.SignatureOf(code.QWord, args...)
			if err != nil {
				return err
			}

			cc, err := abi.NewRegisterConfig().CallingConvention(abi.CallKind_Native, sig)
			if err != nil {
				return err
			}

			a.EmitPrologue()
			if err := a.EmitCallPrologue(cc, args...); err != nil {
				return err
			}
			a.EmitForeignCall(HostAdd, &code.DebugInfo{Method: "native-call", BCI: 0})
			if err := a.EmitCallEpilogue(cc); err != nil {
				return err
			}
			a.EmitIntRet(registers.R0)
			a.EmitEpilogue()
			return nil
		},
		Want: returns(42),
	},
	{
		Name:        "trap",
		Description: "faults on a null load recorded as an implicit exception",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitTrap(&code.DebugInfo{Method: "trap", BCI: 1})
			a.EmitIntRet(registers.ZR)
			a.EmitEpilogue()
			return nil
		},
		Want: func(asm.Config) Expectation { return Expectation{Fault: true} },
	},
	{
		Name:        "uncompress-pointer",
		Description: "decodes a compressed pointer held in a register",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitPointerRet(a.EmitUncompressPointer(a.EmitLoadInt(0x1234), uncompressBase, uncompressShift))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(uncompressBase + 0x1234<<uncompressShift),
	},
	{
		Name:        "data-patch",
		Description: "loads a pointer from a data item patched by the linker",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitPointerRet(a.EmitLoadPointerFromData(a.EmitDataItem(code.Constant{Name: "object"})))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(Constants["object"]),
	},
	{
		Name:        "constant-pointer",
		Description: "materializes a 48 bit constant address patched by the linker",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			a.EmitPointerRet(a.EmitLoadPointer(code.Constant{Name: "object"}))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(Constants["object"]),
	},
	{
		Name:        "narrow-constant",
		Description: "loads a compressed constant from the data section and decodes it with the configured heap base",
		Build: func(a *asm.Assembler) error {
			config := a.Config()

			a.EmitPrologue()
			ref := a.EmitDataItem(code.Constant{Name: "narrow", Compressed: true})
			a.EmitPointerRet(a.EmitUncompressPointer(a.EmitLoadNarrowPointer(ref), config.NarrowOopBase, config.NarrowOopShift))
			a.EmitEpilogue()
			return nil
		},
		Want: func(config asm.Config) Expectation {
			return Expectation{Register: registers.R0, Value: config.NarrowOopBase + Constants["narrow"]<<config.NarrowOopShift}
		},
	},
	{
		Name:        "large-frame",
		Description: "grows the stack past the immediate range and returns",
		Build: func(a *asm.Assembler) error {
			a.EmitPrologue()
			if err := a.EmitGrowStack(4096); err != nil {
				return err
			}
			if err := a.EmitGrowStack(-2048); err != nil {
				return err
			}
			a.EmitIntRet(a.EmitLoadInt(4096))
			a.EmitEpilogue()
			return nil
		},
		Want: returns(4096),
	},
}

// Names of every scenario, in catalog order
func Names() []string {
	return lo.Map(Catalog, func(s *Scenario, _ int) string { return s.Name })
}

// Returns the scenario with the given name
func Find(name string) (*Scenario, error) {
	scenario, ok := lo.Find(Catalog, func(s *Scenario) bool { return s.Name == name })
	if !ok {
		return nil, utils.MakeError(ErrUnknownScenario, "'%v', expected one of %v", name, Names())
	}

	return scenario, nil
}

// Builds the scenario with a fresh assembler and returns the compiled code
func (s *Scenario) Compile(config asm.Config, options ...asm.Option) (*code.CompiledCode, error) {
	a := asm.New(s.Name, config, abi.NewRegisterConfig(), options...)

	if err := s.Build(a); err != nil {
		return nil, utils.MakeError(err, "building %v", s.Name)
	}

	return a.Finish(), nil
}

// Result of running a linked scenario
type Outcome struct {
	Image   *link.Image
	State   *sim.CPUState
	EntrySP uint64
	// Non nil if the run stopped at a memory fault
	Fault *sim.Fault
}

// Links compiled code against Constants and runs it in the simulator with the host
// functions installed. Faults are reported in the outcome, every other failure as an error
func Execute(cc *code.CompiledCode, linkOptions link.Options, simOptions sim.Options, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	linkOptions.Constants = Constants
	if linkOptions.Logger == nil {
		linkOptions.Logger = logger
	}

	img, err := link.Link(cc, linkOptions)
	if err != nil {
		return nil, err
	}

	interpreter := sim.NewInterpreter(simOptions, sim.WithLogger(logger))
	if err := interpreter.Load(img); err != nil {
		return nil, err
	}

	for addr, fn := range HostFunctions() {
		interpreter.Hook(addr, fn)
	}

	outcome := &Outcome{Image: img, State: interpreter.State(), EntrySP: interpreter.State().SP}

	if err := interpreter.Call(img.BaseAddress); err != nil {
		var fault *sim.Fault
		if !errors.As(err, &fault) {
			return outcome, err
		}

		outcome.Fault = fault
	}

	return outcome, nil
}

// Returns the value of the register holding the result
func (o *Outcome) Result(r registers.Register) uint64 {
	return o.State.Register(r)
}

// Checks an outcome against the scenario expectation under the given configuration
func (s *Scenario) Check(config asm.Config, outcome *Outcome) error {
	want := s.Want(config)

	if want.Fault {
		if outcome.Fault == nil {
			return utils.MakeError(ErrUnexpectedResult, "%v returned instead of faulting", s.Name)
		}

		exceptions := code.SitesOf[code.ImplicitException](&code.CompiledCode{Sites: outcome.Image.Sites})
		if !lo.ContainsBy(exceptions, func(site code.ImplicitException) bool {
			return outcome.Image.Address(site.PCOffset) == outcome.Fault.PC
		}) {
			return utils.MakeError(ErrUnexpectedResult, "%v faulted at 0x%x, not at an implicit exception site", s.Name, outcome.Fault.PC)
		}

		return nil
	}

	if outcome.Fault != nil {
		return utils.MakeError(ErrUnexpectedResult, "%v: %v", s.Name, outcome.Fault)
	}

	if got := outcome.Result(want.Register); got != want.Value {
		return utils.MakeError(ErrUnexpectedResult, "%v returned %v=0x%x, expected 0x%x", s.Name, want.Register, got, want.Value)
	}

	if outcome.State.SP != outcome.EntrySP {
		return utils.MakeError(ErrUnexpectedResult, "%v left sp at 0x%x, entry sp was 0x%x", s.Name, outcome.State.SP, outcome.EntrySP)
	}

	return nil
}
