package machine

import (
	"github.com/nanoofficial/nano/internal/uplc"
)

// frame is a continuation frame.
type frame interface {
	frameNode()
}

// frameApplyFun holds an evaluated function waiting for its argument.
type frameApplyFun struct {
	Function Value
}

// frameApplyArg holds an unevaluated argument and its environment while
// the function evaluates.
type frameApplyArg struct {
	Env      *Env
	Argument uplc.Term
}

// frameForce marks a pending force.
type frameForce struct{}

func (frameApplyFun) frameNode() {}
func (frameApplyArg) frameNode() {}
func (frameForce) frameNode()    {}

// Machine evaluates De Bruijn (or named De Bruijn) terms under a budget.
type Machine struct {
	costs    *CostModel
	exBudget ExBudget
	frames   []frame
	logs     []string
}

// New creates a machine with the given cost model and initial budget.
func New(costs *CostModel, budget ExBudget) *Machine {
	return &Machine{costs: costs, exBudget: budget}
}

// NewDefault creates a machine with the stock cost model and budget.
func NewDefault() *Machine {
	return New(DefaultCostModel(), DefaultExBudget)
}

// Remaining returns the unconsumed budget.
func (m *Machine) Remaining() ExBudget { return m.exBudget }

// Logs returns the trace messages emitted so far, in evaluation order.
func (m *Machine) Logs() []string { return m.logs }

// Run evaluates a term to a result term. The machine is single use: budget
// and logs accumulate across calls.
func (m *Machine) Run(term uplc.Term) (uplc.Term, error) {
	if err := m.spendBudget(m.costs.Machine.Startup); err != nil {
		return nil, err
	}

	var env *Env
	currentTerm := term
	var returned Value
	computing := true

	for {
		if computing {
			value, next, nextEnv, err := m.compute(currentTerm, env)
			if err != nil {
				return nil, err
			}
			if next != nil {
				currentTerm = next
				env = nextEnv
				continue
			}
			returned = value
			computing = false
			continue
		}

		if len(m.frames) == 0 {
			return dischargeValue(returned), nil
		}

		top := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]

		switch fr := top.(type) {
		case frameApplyArg:
			m.frames = append(m.frames, frameApplyFun{Function: returned})
			currentTerm = fr.Argument
			env = fr.Env
			computing = true
		case frameApplyFun:
			value, next, nextEnv, err := m.applyEvaluate(fr.Function, returned)
			if err != nil {
				return nil, err
			}
			if next != nil {
				currentTerm = next
				env = nextEnv
				computing = true
				continue
			}
			returned = value
		case frameForce:
			value, next, nextEnv, err := m.forceEvaluate(returned)
			if err != nil {
				return nil, err
			}
			if next != nil {
				currentTerm = next
				env = nextEnv
				computing = true
				continue
			}
			returned = value
		}
	}
}

// compute performs one compute transition. It either produces a value or a
// next (term, env) pair to keep computing.
func (m *Machine) compute(term uplc.Term, env *Env) (Value, uplc.Term, *Env, error) {
	switch t := term.(type) {
	case *uplc.Var:
		if err := m.spendStep(StepVar); err != nil {
			return nil, nil, nil, err
		}
		index := binderIndex(t.Name)
		value, ok := env.Lookup(int(index))
		if !ok {
			return nil, nil, nil, &OpenTermEvaluatedError{Term: t}
		}
		return value, nil, nil, nil
	case *uplc.Delay:
		if err := m.spendStep(StepDelay); err != nil {
			return nil, nil, nil, err
		}
		return &DelayValue{Body: t.Term, Env: env}, nil, nil, nil
	case *uplc.Lambda:
		if err := m.spendStep(StepLambda); err != nil {
			return nil, nil, nil, err
		}
		return &LambdaValue{
			ParameterName: namedBinder(t.ParameterName),
			Body:          t.Body,
			Env:           env,
		}, nil, nil, nil
	case *uplc.Apply:
		if err := m.spendStep(StepApply); err != nil {
			return nil, nil, nil, err
		}
		m.frames = append(m.frames, frameApplyArg{Env: env, Argument: t.Argument})
		return nil, t.Function, env, nil
	case *uplc.Constant:
		if err := m.spendStep(StepConstant); err != nil {
			return nil, nil, nil, err
		}
		return &Con{Constant: t.Con}, nil, nil, nil
	case *uplc.Force:
		if err := m.spendStep(StepForce); err != nil {
			return nil, nil, nil, err
		}
		m.frames = append(m.frames, frameForce{})
		return nil, t.Term, env, nil
	case *uplc.Error:
		return nil, nil, nil, &EvaluationFailureError{}
	case *uplc.Builtin:
		if err := m.spendStep(StepBuiltin); err != nil {
			return nil, nil, nil, err
		}
		return &BuiltinValue{Fun: t.Fun, Runtime: newRuntime(t.Fun)}, nil, nil, nil
	default:
		return nil, nil, nil, &OpenTermEvaluatedError{Term: term}
	}
}

// forceEvaluate handles a value returned to a force frame.
func (m *Machine) forceEvaluate(value Value) (Value, uplc.Term, *Env, error) {
	switch v := value.(type) {
	case *DelayValue:
		return nil, v.Body, v.Env, nil
	case *BuiltinValue:
		if !v.Runtime.NeedsForce() {
			return nil, nil, nil, &BuiltinTermArgumentExpectedError{Fun: v.Fun}
		}
		runtime := v.Runtime.ConsumeForce()
		if runtime.IsReady() {
			result, err := m.evalBuiltinApp(v.Fun, runtime.Args)
			return result, nil, nil, err
		}
		return &BuiltinValue{Fun: v.Fun, Runtime: runtime}, nil, nil, nil
	default:
		return nil, nil, nil, &NonPolymorphicInstantiationError{Value: value}
	}
}

// applyEvaluate handles an argument value returned to a function value.
func (m *Machine) applyEvaluate(function, argument Value) (Value, uplc.Term, *Env, error) {
	switch f := function.(type) {
	case *LambdaValue:
		return nil, f.Body, f.Env.Extend(argument), nil
	case *BuiltinValue:
		if f.Runtime.NeedsForce() {
			return nil, nil, nil, &UnexpectedBuiltinTermArgumentError{Fun: f.Fun}
		}
		runtime := f.Runtime.PushArg(argument)
		if runtime.IsReady() {
			result, err := m.evalBuiltinApp(f.Fun, runtime.Args)
			return result, nil, nil, err
		}
		return &BuiltinValue{Fun: f.Fun, Runtime: runtime}, nil, nil, nil
	default:
		return nil, nil, nil, &NonFunctionApplicationError{Value: function}
	}
}

func (m *Machine) spendStep(kind StepKind) error {
	return m.spendBudget(m.costs.Machine.Steps[kind])
}

func (m *Machine) spendBudget(spent ExBudget) error {
	m.exBudget = m.exBudget.Sub(spent)
	if m.exBudget.Exhausted() {
		return &OutOfExError{Budget: m.exBudget}
	}
	return nil
}

func binderIndex(binder uplc.Binder) uplc.DeBruijnIndex {
	switch b := binder.(type) {
	case uplc.DeBruijn:
		return b.Index
	case uplc.NamedDeBruijn:
		return b.Index
	default:
		return 0
	}
}

func namedBinder(binder uplc.Binder) uplc.NamedDeBruijn {
	switch b := binder.(type) {
	case uplc.NamedDeBruijn:
		return b
	case uplc.DeBruijn:
		return uplc.NamedDeBruijn{Text: "i", Index: b.Index}
	case uplc.Name:
		return uplc.NamedDeBruijn{Text: b.Text, Index: 0}
	default:
		return uplc.NamedDeBruijn{Text: "i", Index: 0}
	}
}
