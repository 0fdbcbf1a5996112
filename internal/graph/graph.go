package graph

import (
	"slices"
)

// DependencyGraph records which keys depend on which. Keys that are only
// ever named as dependencies are nodes too; IsDeclared tells them apart.
// It is not safe for concurrent use.
type DependencyGraph[K comparable] struct {
	nodes map[K]*Node[K]
	order []K // insertion order, keeps traversals deterministic
}

// Node is one key in the graph.
type Node[K comparable] struct {
	Key          K
	Declared     bool // added with AddNode rather than only referenced
	Dependencies []K  // keys this node depends on
	Dependents   []K  // keys that depend on this node
	Depth        int  // longest dependency chain below this node, -1 inside a cycle
}

// New creates an empty graph.
func New[K comparable]() *DependencyGraph[K] {
	return &DependencyGraph[K]{
		nodes: make(map[K]*Node[K]),
	}
}

// AddNode declares key with its dependencies. Declaring a key again
// replaces its dependencies.
func (g *DependencyGraph[K]) AddNode(key K, deps ...K) {
	node := g.ensure(key)

	for _, old := range node.Dependencies {
		dep := g.nodes[old]
		dep.Dependents = slices.DeleteFunc(dep.Dependents, func(k K) bool { return k == key })
	}

	node.Declared = true
	node.Dependencies = slices.Clone(deps)

	for _, d := range deps {
		dep := g.ensure(d)
		if !slices.Contains(dep.Dependents, key) {
			dep.Dependents = append(dep.Dependents, key)
		}
	}
}

func (g *DependencyGraph[K]) ensure(key K) *Node[K] {
	if node, ok := g.nodes[key]; ok {
		return node
	}

	node := &Node[K]{Key: key}
	g.nodes[key] = node
	g.order = append(g.order, key)
	return node
}

// Node returns the node for key, or nil.
func (g *DependencyGraph[K]) Node(key K) *Node[K] {
	return g.nodes[key]
}

// Size returns the number of nodes, referenced-only keys included.
func (g *DependencyGraph[K]) Size() int {
	return len(g.nodes)
}

// Nodes returns every node in insertion order.
func (g *DependencyGraph[K]) Nodes() []*Node[K] {
	nodes := make([]*Node[K], 0, len(g.order))
	for _, k := range g.order {
		nodes = append(nodes, g.nodes[k])
	}
	return nodes
}

// Undeclared returns keys that are depended on but were never added.
func (g *DependencyGraph[K]) Undeclared() []K {
	var missing []K
	for _, k := range g.order {
		if !g.nodes[k].Declared {
			missing = append(missing, k)
		}
	}
	return missing
}

// FindCycle returns the first cycle found, as a path that starts and ends
// with the same key, or nil when the graph is acyclic.
func (g *DependencyGraph[K]) FindCycle() []K {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[K]int, len(g.nodes))
	var stack []K

	var visit func(k K) []K
	visit = func(k K) []K {
		state[k] = visiting
		stack = append(stack, k)

		for _, dep := range g.nodes[k].Dependencies {
			switch state[dep] {
			case visiting:
				start := slices.Index(stack, dep)
				return append(slices.Clone(stack[start:]), dep)
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[k] = visited
		return nil
	}

	for _, k := range g.order {
		if state[k] == unvisited {
			if cycle := visit(k); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// IsAcyclic reports whether the graph has no cycles.
func (g *DependencyGraph[K]) IsAcyclic() bool {
	return g.FindCycle() == nil
}

// TopologicalSort returns the keys with every dependency before its
// dependents. It returns false if the graph has a cycle.
func (g *DependencyGraph[K]) TopologicalSort() ([]K, bool) {
	// Kahn's algorithm over dependency counts.
	inDegree := make(map[K]int, len(g.nodes))
	for _, k := range g.order {
		inDegree[k] = len(g.nodes[k].Dependencies)
	}

	var queue []K
	for _, k := range g.order {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	sorted := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		sorted = append(sorted, k)

		for _, dependent := range g.nodes[k].Dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	return sorted, len(sorted) == len(g.nodes)
}

// Roots returns nodes nothing depends on.
func (g *DependencyGraph[K]) Roots() []*Node[K] {
	var roots []*Node[K]
	for _, k := range g.order {
		if len(g.nodes[k].Dependents) == 0 {
			roots = append(roots, g.nodes[k])
		}
	}
	return roots
}

// Leaves returns nodes with no dependencies.
func (g *DependencyGraph[K]) Leaves() []*Node[K] {
	var leaves []*Node[K]
	for _, k := range g.order {
		if len(g.nodes[k].Dependencies) == 0 {
			leaves = append(leaves, g.nodes[k])
		}
	}
	return leaves
}

// TransitiveDependencies returns every key reachable from key, nearest first.
func (g *DependencyGraph[K]) TransitiveDependencies(key K) []K {
	node, ok := g.nodes[key]
	if !ok {
		return nil
	}

	seen := map[K]bool{key: true}
	var result []K
	queue := slices.Clone(node.Dependencies)

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, k)
		queue = append(queue, g.nodes[k].Dependencies...)
	}

	return result
}

// CalculateDepths sets Depth on every node. Leaves have depth 0; nodes on
// or above a cycle get -1.
func (g *DependencyGraph[K]) CalculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -2 // not computed
	}

	var depth func(k K, onPath map[K]bool) int
	depth = func(k K, onPath map[K]bool) int {
		node := g.nodes[k]
		if node.Depth != -2 {
			return node.Depth
		}
		if onPath[k] {
			return -1
		}

		onPath[k] = true
		defer delete(onPath, k)

		d := 0
		for _, dep := range node.Dependencies {
			child := depth(dep, onPath)
			if child < 0 {
				d = -1
				break
			}
			d = max(d, child+1)
		}

		node.Depth = d
		return d
	}

	for _, k := range g.order {
		depth(k, make(map[K]bool))
	}
}
