package machine

import (
	"github.com/nanoofficial/nano/internal/uplc"
)

// dischargeValue surfaces a machine value as a term, resolving captured
// environments so the result is closed.
func dischargeValue(value Value) uplc.Term {
	switch v := value.(type) {
	case *Con:
		return &uplc.Constant{Con: v.Constant}
	case *BuiltinValue:
		var term uplc.Term = &uplc.Builtin{Fun: v.Fun}
		for i := 0; i < v.Runtime.Forces; i++ {
			term = &uplc.Force{Term: term}
		}
		for _, arg := range v.Runtime.Args {
			term = &uplc.Apply{Function: term, Argument: dischargeValue(arg)}
		}
		return term
	case *DelayValue:
		return withEnv(0, v.Env, &uplc.Delay{Term: v.Body})
	case *LambdaValue:
		return withEnv(0, v.Env, &uplc.Lambda{
			ParameterName: v.ParameterName,
			Body:          v.Body,
		})
	}
	return &uplc.Error{}
}

// withEnv substitutes environment values for variables whose index points
// past the lambdas entered so far.
func withEnv(lamCount int, env *Env, term uplc.Term) uplc.Term {
	switch t := term.(type) {
	case *uplc.Var:
		index := int(binderIndex(t.Name))
		if lamCount >= index {
			return t
		}
		if value, ok := env.Lookup(index - lamCount); ok {
			return dischargeValue(value)
		}
		return t
	case *uplc.Lambda:
		return &uplc.Lambda{
			ParameterName: t.ParameterName,
			Body:          withEnv(lamCount+1, env, t.Body),
		}
	case *uplc.Apply:
		return &uplc.Apply{
			Function: withEnv(lamCount, env, t.Function),
			Argument: withEnv(lamCount, env, t.Argument),
		}
	case *uplc.Delay:
		return &uplc.Delay{Term: withEnv(lamCount, env, t.Term)}
	case *uplc.Force:
		return &uplc.Force{Term: withEnv(lamCount, env, t.Term)}
	default:
		return term
	}
}
