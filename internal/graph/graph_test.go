package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds a -> {double, plus} -> sum, with an unrelated source b feeding label.
func diamond(t *testing.T) (*Graph, *Source[int], *Source[string], *Node[int], *Node[string]) {
	t.Helper()

	g := New()
	a := NewSource(g, "a", 1)
	b := NewSource(g, "b", "x")
	double := Map(g, "double", a, func(v int) int { return v * 2 })
	plus := Map(g, "plus", a, func(v int) int { return v + 10 })
	sum := Combine(g, "sum", double, plus, func(x, y int) int { return x + y })
	label := Map(g, "label", b, func(s string) string { return s + "!" })
	return g, a, b, sum, label
}

func TestNewSource_InitialValue(t *testing.T) {
	g := New()
	s := NewSource(g, "count", 7)
	assert.Equal(t, 7, s.Get())
	assert.Equal(t, "count", s.Name())
}

func TestDerived_ComputedOnRegistration(t *testing.T) {
	_, _, _, sum, label := diamond(t)
	// double=2, plus=11
	assert.Equal(t, 13, sum.Get())
	assert.Equal(t, "x!", label.Get())
}

func TestSet_RecomputesTransitiveClosureOnly(t *testing.T) {
	_, a, _, sum, label := diamond(t)

	recomputed := a.Set(5)

	assert.Equal(t, []string{"double", "plus", "sum"}, recomputed)
	assert.Equal(t, 25, sum.Get())
	assert.Equal(t, "x!", label.Get())
}

func TestSet_UnrelatedSourceLeavesOtherBranch(t *testing.T) {
	_, _, b, sum, label := diamond(t)

	recomputed := b.Set("y")

	assert.Equal(t, []string{"label"}, recomputed)
	assert.Equal(t, "y!", label.Get())
	assert.Equal(t, 13, sum.Get())
}

func TestSet_SourceWithoutDependents(t *testing.T) {
	g := New()
	s := NewSource(g, "lonely", 0)
	assert.Empty(t, s.Set(3))
	assert.Equal(t, 3, s.Get())
}

func TestUpdateAndReset(t *testing.T) {
	_, a, _, sum, _ := diamond(t)

	a.Update(func(v int) int { return v + 2 })
	assert.Equal(t, 3, a.Get())
	assert.Equal(t, 19, sum.Get())

	recomputed := a.Reset()
	assert.Equal(t, []string{"double", "plus", "sum"}, recomputed)
	assert.Equal(t, 1, a.Get())
	assert.Equal(t, 13, sum.Get())
}

func TestDerivedSeesLatestValuesInOrder(t *testing.T) {
	g := New()
	a := NewSource(g, "a", 1)
	var seen []int
	first := Map(g, "first", a, func(v int) int { return v + 1 })
	Combine(g, "second", a, first, func(v, f int) int {
		seen = append(seen, f-v)
		return v + f
	})

	a.Set(10)
	a.Set(20)

	// first is always recomputed before second, so the difference is always 1.
	assert.Equal(t, []int{1, 1, 1}, seen)
}

func TestNamesAndDependents(t *testing.T) {
	g, _, _, _, _ := diamond(t)

	assert.Equal(t, []string{"a", "b", "double", "plus", "sum", "label"}, g.Names())
	assert.Equal(t, []string{"double", "plus", "sum"}, g.Dependents("a"))
	assert.Equal(t, []string{"sum"}, g.Dependents("double"))
	assert.Empty(t, g.Dependents("sum"))
	assert.Nil(t, g.Dependents("missing"))
}

func TestRegister_DuplicateNamePanics(t *testing.T) {
	g := New()
	NewSource(g, "a", 1)
	assert.Panics(t, func() { NewSource(g, "a", 2) })
}

func TestRegister_EmptyNamePanics(t *testing.T) {
	assert.Panics(t, func() { NewSource(New(), "", 1) })
}

func TestRegister_ForeignDependencyPanics(t *testing.T) {
	other := New()
	foreign := NewSource(other, "a", 1)

	g := New()
	require.Panics(t, func() {
		Map(g, "b", foreign, func(v int) int { return v })
	})
}
