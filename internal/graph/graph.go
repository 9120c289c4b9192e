// Package graph provides a small explicit dependency graph of typed values.
//
// Source values are set from the outside; derived nodes are computed from the
// nodes they depend on. A node can only be registered after all of its
// dependencies, so registration order is always a valid topological order and
// the graph cannot contain cycles. Setting a source recomputes exactly the
// nodes that transitively depend on it, in registration order.
//
// A Graph is not safe for concurrent use. Owners serialize access themselves.
package graph

import "fmt"

type node struct {
	name    string
	index   int
	deps    []*node
	value   any
	compute func() any
}

// Graph owns a set of source and derived nodes.
type Graph struct {
	nodes  []*node
	byName map[string]*node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byName: make(map[string]*node)}
}

// Value is a readable handle onto a graph node.
type Value[T any] interface {
	Get() T
	Name() string
	ref() *node
}

// Source is a node whose value is set directly.
type Source[T any] struct {
	g       *Graph
	n       *node
	initial T
}

// Node is a derived node whose value is computed from its dependencies.
type Node[T any] struct {
	n *node
}

// NewSource registers a source node holding initial.
func NewSource[T any](g *Graph, name string, initial T) *Source[T] {
	n := g.register(name, nil)
	n.value = initial
	return &Source[T]{g: g, n: n, initial: initial}
}

// Map registers a node derived from a single dependency.
func Map[A, B any](g *Graph, name string, in Value[A], f func(A) B) *Node[B] {
	n := g.register(name, []*node{in.ref()})
	n.compute = func() any { return f(in.Get()) }
	n.value = n.compute()
	return &Node[B]{n: n}
}

// Combine registers a node derived from two dependencies.
func Combine[A, B, C any](g *Graph, name string, a Value[A], b Value[B], f func(A, B) C) *Node[C] {
	n := g.register(name, []*node{a.ref(), b.ref()})
	n.compute = func() any { return f(a.Get(), b.Get()) }
	n.value = n.compute()
	return &Node[C]{n: n}
}

func (g *Graph) register(name string, deps []*node) *node {
	if name == "" {
		panic("graph: node name must not be empty")
	}
	if _, exists := g.byName[name]; exists {
		panic(fmt.Sprintf("graph: duplicate node %q", name))
	}
	for _, d := range deps {
		if g.byName[d.name] != d {
			panic(fmt.Sprintf("graph: dependency %q of %q belongs to another graph", d.name, name))
		}
	}

	n := &node{name: name, index: len(g.nodes), deps: deps}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n
	return n
}

// walk visits every node downstream of src in registration order.
func (g *Graph) walk(src *node, visit func(*node)) {
	dirty := map[*node]bool{src: true}
	for _, n := range g.nodes[src.index+1:] {
		for _, d := range n.deps {
			if dirty[d] {
				dirty[n] = true
				visit(n)
				break
			}
		}
	}
}

// propagate recomputes every node downstream of src and returns their names
// in the order they were recomputed.
func (g *Graph) propagate(src *node) []string {
	var recomputed []string
	g.walk(src, func(n *node) {
		n.value = n.compute()
		recomputed = append(recomputed, n.name)
	})
	return recomputed
}

// Names returns every node name in registration order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		names[i] = n.name
	}
	return names
}

// Dependents returns the names of the nodes that would be recomputed if the
// named node changed, in recomputation order.
func (g *Graph) Dependents(name string) []string {
	src, ok := g.byName[name]
	if !ok {
		return nil
	}

	var out []string
	g.walk(src, func(n *node) { out = append(out, n.name) })
	return out
}

// Get returns the current source value.
func (s *Source[T]) Get() T {
	v, _ := s.n.value.(T)
	return v
}

// Name returns the node name.
func (s *Source[T]) Name() string { return s.n.name }

func (s *Source[T]) ref() *node { return s.n }

// Set replaces the source value and recomputes its dependents. It returns the
// names of the recomputed nodes.
func (s *Source[T]) Set(v T) []string {
	s.n.value = v
	return s.g.propagate(s.n)
}

// Update applies f to the current value and stores the result.
func (s *Source[T]) Update(f func(T) T) []string {
	return s.Set(f(s.Get()))
}

// Reset restores the initial value.
func (s *Source[T]) Reset() []string {
	return s.Set(s.initial)
}

// Get returns the last computed value.
func (n *Node[T]) Get() T {
	v, _ := n.n.value.(T)
	return v
}

// Name returns the node name.
func (n *Node[T]) Name() string { return n.n.name }

func (n *Node[T]) ref() *node { return n.n }
