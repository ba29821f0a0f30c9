package machine

import (
	"fmt"

	"github.com/nanoofficial/nano/internal/uplc"
)

// ExBudget is the pair of execution-unit counters consumed by the machine.
// The counters are signed so exhaustion is observable as a negative value.
type ExBudget struct {
	Mem int64
	CPU int64
}

// DefaultExBudget is the ceiling used when the host does not supply one.
var DefaultExBudget = ExBudget{Mem: 14_000_000, CPU: 10_000_000_000}

func (b ExBudget) String() string {
	return fmt.Sprintf("mem: %d, cpu: %d", b.Mem, b.CPU)
}

// Sub returns b minus other.
func (b ExBudget) Sub(other ExBudget) ExBudget {
	return ExBudget{Mem: b.Mem - other.Mem, CPU: b.CPU - other.CPU}
}

// Add returns b plus other.
func (b ExBudget) Add(other ExBudget) ExBudget {
	return ExBudget{Mem: b.Mem + other.Mem, CPU: b.CPU + other.CPU}
}

// Exhausted reports whether either dimension has gone negative.
func (b ExBudget) Exhausted() bool {
	return b.Mem < 0 || b.CPU < 0
}

// StepKind indexes the per-opcode machine costs.
type StepKind int

const (
	StepConstant StepKind = iota
	StepVar
	StepLambda
	StepApply
	StepDelay
	StepForce
	StepBuiltin
	stepKindCount
)

// MachineCosts carries the per-step and startup charges.
type MachineCosts struct {
	Startup ExBudget
	Steps   [stepKindCount]ExBudget
}

// CostModel bundles machine step costs with per-builtin costing functions.
type CostModel struct {
	Machine  MachineCosts
	Builtins map[uplc.DefaultFunction]BuiltinCost
}

// BuiltinCost predicts the budget consumed by one saturated builtin
// application from the memory metrics of its arguments.
type BuiltinCost struct {
	Mem CostingFun
	CPU CostingFun
}

// CostingFun maps argument sizes to a single cost figure.
type CostingFun interface {
	Cost(args []int64) int64
}

// ConstantCost charges a fixed figure regardless of arguments.
type ConstantCost int64

func (c ConstantCost) Cost([]int64) int64 { return int64(c) }

// LinearCost charges intercept + slope * size, where size is selected by
// the Measure function.
type LinearCost struct {
	Intercept int64
	Slope     int64
	Measure   func(args []int64) int64
}

func (c LinearCost) Cost(args []int64) int64 {
	return c.Intercept + c.Slope*c.Measure(args)
}

// Size selectors for LinearCost.

func sumSizes(args []int64) int64 {
	var total int64
	for _, a := range args {
		total += a
	}
	return total
}

func maxSize(args []int64) int64 {
	var out int64
	for _, a := range args {
		if a > out {
			out = a
		}
	}
	return out
}

func minSize(args []int64) int64 {
	if len(args) == 0 {
		return 0
	}
	out := args[0]
	for _, a := range args[1:] {
		if a < out {
			out = a
		}
	}
	return out
}

func firstSize(args []int64) int64 {
	if len(args) == 0 {
		return 0
	}
	return args[0]
}

// linearIn builds a LinearCost over the given measure.
func linearIn(intercept, slope int64, measure func([]int64) int64) CostingFun {
	return LinearCost{Intercept: intercept, Slope: slope, Measure: measure}
}

// DefaultMachineCosts are the stock per-step charges: a flat 100 memory /
// 23000 cpu per opcode plus a small startup charge.
func DefaultMachineCosts() MachineCosts {
	costs := MachineCosts{Startup: ExBudget{Mem: 100, CPU: 100}}
	for i := range costs.Steps {
		costs.Steps[i] = ExBudget{Mem: 100, CPU: 23_000}
	}
	return costs
}

// DefaultCostModel returns the stock cost model used when the host does not
// supply protocol parameters.
func DefaultCostModel() *CostModel {
	builtins := map[uplc.DefaultFunction]BuiltinCost{}

	arithmetic := BuiltinCost{
		Mem: linearIn(1, 1, maxSize),
		CPU: linearIn(85_848, 123_203, maxSize),
	}
	for _, fun := range []uplc.DefaultFunction{
		uplc.AddInteger, uplc.SubtractInteger,
	} {
		builtins[fun] = arithmetic
	}
	builtins[uplc.MultiplyInteger] = BuiltinCost{
		Mem: linearIn(0, 1, sumSizes),
		CPU: linearIn(90_434, 519, sumSizes),
	}
	division := BuiltinCost{
		Mem: linearIn(0, 1, firstSize),
		CPU: linearIn(196_500, 453_240, sumSizes),
	}
	for _, fun := range []uplc.DefaultFunction{
		uplc.DivideInteger, uplc.QuotientInteger, uplc.RemainderInteger, uplc.ModInteger,
	} {
		builtins[fun] = division
	}
	comparison := BuiltinCost{
		Mem: ConstantCost(1),
		CPU: linearIn(51_775, 558, minSize),
	}
	for _, fun := range []uplc.DefaultFunction{
		uplc.EqualsInteger, uplc.LessThanInteger, uplc.LessThanEqualsInteger,
	} {
		builtins[fun] = comparison
	}

	builtins[uplc.AppendByteString] = BuiltinCost{
		Mem: linearIn(0, 1, sumSizes),
		CPU: linearIn(1_000, 173, sumSizes),
	}
	builtins[uplc.ConsByteString] = BuiltinCost{
		Mem: linearIn(0, 1, sumSizes),
		CPU: linearIn(72_010, 178, sumSizes),
	}
	builtins[uplc.SliceByteString] = BuiltinCost{
		Mem: linearIn(4, 0, sumSizes),
		CPU: linearIn(20_467, 1, sumSizes),
	}
	builtins[uplc.LengthOfByteString] = BuiltinCost{Mem: ConstantCost(10), CPU: ConstantCost(22_100)}
	builtins[uplc.IndexByteString] = BuiltinCost{Mem: ConstantCost(4), CPU: ConstantCost(13_169)}
	byteComparison := BuiltinCost{
		Mem: ConstantCost(1),
		CPU: linearIn(24_548, 29_498, minSize),
	}
	for _, fun := range []uplc.DefaultFunction{
		uplc.EqualsByteString, uplc.LessThanByteString, uplc.LessThanEqualsByteString,
	} {
		builtins[fun] = byteComparison
	}

	builtins[uplc.Sha2_256] = BuiltinCost{
		Mem: ConstantCost(4),
		CPU: linearIn(270_652, 22_588, firstSize),
	}
	builtins[uplc.Sha3_256] = BuiltinCost{
		Mem: ConstantCost(4),
		CPU: linearIn(1_457_325, 64_566, firstSize),
	}
	builtins[uplc.Blake2b_256] = BuiltinCost{
		Mem: ConstantCost(4),
		CPU: linearIn(201_305, 8_356, firstSize),
	}
	builtins[uplc.VerifyEd25519Signature] = BuiltinCost{
		Mem: ConstantCost(10),
		CPU: linearIn(53_384_111, 14_333, sumSizes),
	}

	builtins[uplc.AppendString] = BuiltinCost{
		Mem: linearIn(4, 1, sumSizes),
		CPU: linearIn(1_000, 59_957, sumSizes),
	}
	builtins[uplc.EqualsString] = BuiltinCost{
		Mem: ConstantCost(1),
		CPU: linearIn(39_184, 1_000, minSize),
	}
	builtins[uplc.EncodeUtf8] = BuiltinCost{
		Mem: linearIn(4, 2, firstSize),
		CPU: linearIn(1_000, 42_921, firstSize),
	}
	builtins[uplc.DecodeUtf8] = BuiltinCost{
		Mem: linearIn(4, 2, firstSize),
		CPU: linearIn(91_189, 769, firstSize),
	}

	cheap := BuiltinCost{Mem: ConstantCost(1), CPU: ConstantCost(16_000)}
	for _, fun := range []uplc.DefaultFunction{
		uplc.IfThenElse, uplc.ChooseUnit, uplc.ChooseList, uplc.ChooseData,
		uplc.FstPair, uplc.SndPair, uplc.HeadList, uplc.TailList, uplc.NullList,
		uplc.MkCons, uplc.MkPairData, uplc.MkNilData, uplc.MkNilPairData,
	} {
		builtins[fun] = cheap
	}
	builtins[uplc.Trace] = BuiltinCost{Mem: ConstantCost(32), CPU: ConstantCost(212_342)}

	dataIntro := BuiltinCost{Mem: ConstantCost(32), CPU: ConstantCost(11_183)}
	for _, fun := range []uplc.DefaultFunction{
		uplc.ConstrData, uplc.MapData, uplc.ListData, uplc.IData, uplc.BData,
	} {
		builtins[fun] = dataIntro
	}
	dataElim := BuiltinCost{Mem: ConstantCost(32), CPU: ConstantCost(24_588)}
	for _, fun := range []uplc.DefaultFunction{
		uplc.UnConstrData, uplc.UnMapData, uplc.UnListData, uplc.UnIData, uplc.UnBData,
	} {
		builtins[fun] = dataElim
	}
	builtins[uplc.EqualsData] = BuiltinCost{
		Mem: ConstantCost(1),
		CPU: linearIn(898_148, 27_279, minSize),
	}
	builtins[uplc.SerialiseData] = BuiltinCost{
		Mem: linearIn(0, 2, firstSize),
		CPU: linearIn(955_506, 38_121, firstSize),
	}

	return &CostModel{
		Machine:  DefaultMachineCosts(),
		Builtins: builtins,
	}
}

// BuiltinBudget computes the budget a saturated builtin application will
// consume, from the memory metrics of its arguments.
func (m *CostModel) BuiltinBudget(fun uplc.DefaultFunction, args []Value) ExBudget {
	cost, ok := m.Builtins[fun]
	if !ok {
		return ExBudget{Mem: 1, CPU: 16_000}
	}
	sizes := make([]int64, len(args))
	for i, arg := range args {
		sizes[i] = ToExMem(arg)
	}
	return ExBudget{Mem: cost.Mem.Cost(sizes), CPU: cost.CPU.Cost(sizes)}
}
