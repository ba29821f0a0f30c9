package ast

// Pattern is an untyped match pattern. The typed counterparts produced by
// inference live in internal/types.
type Pattern interface {
	PatternLocation() Span
	patternNode()
}

// PatternInt matches an integer literal.
type PatternInt struct {
	Location Span
	Value    string
}

// PatternVar binds the subject to a name.
type PatternVar struct {
	Location Span
	Name     string
}

// PatternDiscard matches anything without binding.
type PatternDiscard struct {
	Location Span
	Name     string
}

// PatternAssign matches the inner pattern and also binds the whole subject.
type PatternAssign struct {
	Location Span
	Name     string
	Pattern  Pattern
}

// PatternList matches a list, optionally with a `..tail` pattern.
type PatternList struct {
	Location Span
	Elements []Pattern
	Tail     Pattern
}

// PatternTuple matches a tuple element-wise.
type PatternTuple struct {
	Location Span
	Elems    []Pattern
}

// PatternConstructor matches a data-type variant. IsRecord marks patterns
// written with labelled fields; WithSpread allows trailing fields to be
// omitted.
type PatternConstructor struct {
	IsRecord   bool
	Location   Span
	Name       string
	Arguments  []CallArg[Pattern]
	Module     string
	WithSpread bool
	SpreadLoc  Span
}

func (p *PatternInt) PatternLocation() Span         { return p.Location }
func (p *PatternVar) PatternLocation() Span         { return p.Location }
func (p *PatternDiscard) PatternLocation() Span     { return p.Location }
func (p *PatternAssign) PatternLocation() Span      { return p.Location }
func (p *PatternList) PatternLocation() Span        { return p.Location }
func (p *PatternTuple) PatternLocation() Span       { return p.Location }
func (p *PatternConstructor) PatternLocation() Span { return p.Location }

func (p *PatternInt) patternNode()         {}
func (p *PatternVar) patternNode()         {}
func (p *PatternDiscard) patternNode()     {}
func (p *PatternAssign) patternNode()      {}
func (p *PatternList) patternNode()        {}
func (p *PatternTuple) patternNode()       {}
func (p *PatternConstructor) patternNode() {}
