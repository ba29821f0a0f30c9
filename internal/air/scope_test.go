package air

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoofficial/nano/internal/idgen"
)

func TestCommonAncestor(t *testing.T) {
	cases := []struct {
		a, b, want Scope
	}{
		{Scope{1, 2, 3}, Scope{1, 2, 4}, Scope{1, 2}},
		{Scope{1, 2}, Scope{1, 2, 4}, Scope{1, 2}},
		{Scope{1, 2, 4}, Scope{1, 2}, Scope{1, 2}},
		{Scope{1, 2}, Scope{1, 2}, Scope{1, 2}},
		{Scope{5}, Scope{6}, Scope{}},
		{Scope{}, Scope{1}, Scope{}},
	}
	for _, tc := range cases {
		got := tc.a.CommonAncestor(tc.b)
		assert.True(t, got.Equal(tc.want), "ancestor(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
	}
}

func TestReplaceReparents(t *testing.T) {
	// dest shares the prefix [1, 2]; re-parenting under [9, 8] keeps the
	// relative suffix.
	dest := Scope{1, 2, 3, 4}
	replacement := Scope{1, 2, 9, 8}
	got := dest.Replace(replacement)
	assert.True(t, got.Equal(Scope{1, 2, 9, 8, 3, 4}), "got %v", got)
}

func TestReplaceWithDisjointScopes(t *testing.T) {
	dest := Scope{5, 6}
	replacement := Scope{7}
	got := dest.Replace(replacement)
	assert.True(t, got.Equal(Scope{7, 5, 6}), "got %v", got)
}

func TestMergeChildPrefixesScopes(t *testing.T) {
	idGen := idgen.New()
	parent := NewStack(idGen)
	parent.Scope = Scope{1, 2}

	child := WithScope(idGen, Scope{1})
	child.Integer("42")

	parent.MergeChild(child)
	require.Len(t, parent.Air, 1)

	childScope := parent.Air[0].GetScope()
	require.GreaterOrEqual(t, len(childScope), len(parent.Scope))
	assert.True(t, Scope(childScope[:2]).Equal(parent.Scope),
		"parent scope must prefix the child's, got %v", childScope)
}

func scopesOf(instructions []Instruction) []Scope {
	out := make([]Scope, len(instructions))
	for i, instruction := range instructions {
		out[i] = instruction.GetScope()
	}
	return out
}

func valuesOf(instructions []Instruction) []string {
	out := make([]string, len(instructions))
	for i, instruction := range instructions {
		out[i] = instruction.(*Int).Value
	}
	return out
}

func TestMergeChildrenIsAssociativeOnInstructionOrder(t *testing.T) {
	build := func() (*Stack, *Stack, *Stack) {
		idGen := idgen.New()
		a := NewStack(idGen)
		a.Integer("1")
		b := NewStack(idGen)
		b.Integer("2")
		c := NewStack(idGen)
		c.Integer("3")
		return a, b, c
	}

	left, b1, c1 := build()
	left.MergeChild(b1)
	left.MergeChild(c1)

	a2, b2, c2 := build()
	b2.MergeChild(c2)
	a2.MergeChild(b2)

	if diff := cmp.Diff(valuesOf(left.Complete()), valuesOf(a2.Complete())); diff != "" {
		t.Fatalf("instruction order differs (-left +right):\n%s", diff)
	}
}

func TestStackEmitsPostOrder(t *testing.T) {
	idGen := idgen.New()
	stack := NewStack(idGen)

	left := stack.EmptyWithScope()
	left.Integer("1")
	right := stack.EmptyWithScope()
	right.Integer("2")
	stack.Builtin(0, nil, left, right)

	instructions := stack.Complete()
	require.Len(t, instructions, 3)
	_, isBuiltin := instructions[0].(*Builtin)
	assert.True(t, isBuiltin)
	assert.Equal(t, "1", instructions[1].(*Int).Value)
	assert.Equal(t, "2", instructions[2].(*Int).Value)

	// Every child's scope extends the parent opcode's scope.
	parentScope := instructions[0].GetScope()
	for _, scope := range scopesOf(instructions[1:]) {
		require.Greater(t, len(scope), len(parentScope))
		assert.True(t, scope[:len(parentScope)].Equal(parentScope))
	}
}
