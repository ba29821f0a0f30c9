package machine

import (
	"github.com/nanoofficial/nano/internal/uplc"
)

// EvalResult bundles a machine outcome with its budget accounting and trace
// logs.
type EvalResult struct {
	term            uplc.Term
	err             error
	remainingBudget ExBudget
	initialBudget   ExBudget
	logs            []string
}

// NewEvalResult builds a result from a finished machine run.
func NewEvalResult(term uplc.Term, err error, remaining, initial ExBudget, logs []string) *EvalResult {
	return &EvalResult{
		term:            term,
		err:             err,
		remainingBudget: remaining,
		initialBudget:   initial,
		logs:            logs,
	}
}

// Cost returns the budget consumed by the run.
func (r *EvalResult) Cost() ExBudget {
	return r.initialBudget.Sub(r.remainingBudget)
}

// Remaining returns the unconsumed budget.
func (r *EvalResult) Remaining() ExBudget {
	return r.remainingBudget
}

// Logs returns the trace messages, in evaluation order.
func (r *EvalResult) Logs() []string {
	return r.logs
}

// Failed reports whether the run should count as a script failure: a
// machine error, an explicit error term, or a plain False result.
func (r *EvalResult) Failed() bool {
	if r.err != nil {
		return true
	}
	if _, ok := r.term.(*uplc.Error); ok {
		return true
	}
	if c, ok := r.term.(*uplc.Constant); ok {
		if b, ok := c.Con.(*uplc.Bool); ok {
			return !b.Inner
		}
	}
	return false
}

// Result returns the outcome term or error.
func (r *EvalResult) Result() (uplc.Term, error) {
	return r.term, r.err
}

// Eval runs a De Bruijn program's term on a fresh machine with the given
// budget, capturing cost and logs.
func Eval(program *uplc.Program, costs *CostModel, budget ExBudget) *EvalResult {
	m := New(costs, budget)
	term, err := m.Run(program.Term)
	return NewEvalResult(term, err, m.Remaining(), budget, m.Logs())
}

// EvalDefault runs with the stock cost model and budget.
func EvalDefault(program *uplc.Program) *EvalResult {
	return Eval(program, DefaultCostModel(), DefaultExBudget)
}
