package graph

import (
	"fmt"
	"io"
	"strconv"
)

// Visualizer renders a dependency graph.
type Visualizer[K comparable] struct {
	graph *DependencyGraph[K]
	label func(K) string
}

// NewVisualizer creates a visualizer that names nodes with label.
func NewVisualizer[K comparable](graph *DependencyGraph[K], label func(K) string) *Visualizer[K] {
	if label == nil {
		label = func(k K) string { return fmt.Sprint(k) }
	}
	return &Visualizer[K]{graph: graph, label: label}
}

// WriteDOT writes the graph in Graphviz DOT format.
func (v *Visualizer[K]) WriteDOT(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.println("digraph dependencies {")
	ew.println("  rankdir=LR;")
	ew.println("  node [shape=box];")

	ids := make(map[K]string, v.graph.Size())
	for i, node := range v.graph.Nodes() {
		id := fmt.Sprintf("n%d", i)
		ids[node.Key] = id
		ew.printf("  %s [label=%s, fillcolor=%q, style=filled];\n", id, strconv.Quote(v.label(node.Key)), nodeColor(node))
	}

	for _, node := range v.graph.Nodes() {
		for _, dep := range node.Dependencies {
			ew.printf("  %s -> %s;\n", ids[node.Key], ids[dep])
		}
	}

	ew.println("}")
	return ew.err
}

// WriteText writes the graph grouped by depth, leaves first.
func (v *Visualizer[K]) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}

	v.graph.CalculateDepths()

	levels := make(map[int][]*Node[K])
	maxDepth := 0
	for _, node := range v.graph.Nodes() {
		levels[node.Depth] = append(levels[node.Depth], node)
		maxDepth = max(maxDepth, node.Depth)
	}

	for depth := 0; depth <= maxDepth; depth++ {
		nodes, ok := levels[depth]
		if !ok {
			continue
		}

		ew.printf("Level %d:\n", depth)
		for _, node := range nodes {
			v.writeNode(ew, node)
		}
		ew.println()
	}

	if cyclic, ok := levels[-1]; ok {
		ew.println("In cycles:")
		for _, node := range cyclic {
			v.writeNode(ew, node)
		}
		ew.println()
	}

	ew.printf("Nodes: %d, roots: %d, leaves: %d, unregistered: %d\n",
		v.graph.Size(), len(v.graph.Roots()), len(v.graph.Leaves()), len(v.graph.Undeclared()))

	return ew.err
}

func (v *Visualizer[K]) writeNode(ew *errWriter, node *Node[K]) {
	marker := ""
	if !node.Declared {
		marker = " (unregistered)"
	}
	ew.printf("  %s%s\n", v.label(node.Key), marker)

	for _, dep := range node.Dependencies {
		ew.printf("    -> %s\n", v.label(dep))
	}
}

func nodeColor[K comparable](node *Node[K]) string {
	switch {
	case !node.Declared:
		return "lightcoral"
	case len(node.Dependencies) == 0:
		return "lightgreen"
	case len(node.Dependents) == 0:
		return "lightblue"
	default:
		return "lightyellow"
	}
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}

func (ew *errWriter) println(args ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintln(ew.w, args...)
	}
}
