package graph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraph_AddNode(t *testing.T) {
	t.Run("records edges both ways", func(t *testing.T) {
		g := New[string]()
		g.AddNode("service", "logger", "db")
		g.AddNode("db", "logger")

		assert.Equal(t, 3, g.Size())
		assert.Equal(t, []string{"logger", "db"}, g.Node("service").Dependencies)
		assert.ElementsMatch(t, []string{"service", "db"}, g.Node("logger").Dependents)
		assert.False(t, g.Node("logger").Declared)
		assert.Equal(t, []string{"logger"}, g.Undeclared())
	})

	t.Run("redeclaring replaces dependencies", func(t *testing.T) {
		g := New[string]()
		g.AddNode("service", "logger")
		g.AddNode("service", "db")

		assert.Equal(t, []string{"db"}, g.Node("service").Dependencies)
		assert.Empty(t, g.Node("logger").Dependents)
		assert.Equal(t, []string{"service"}, g.Node("db").Dependents)
	})
}

func TestDependencyGraph_FindCycle(t *testing.T) {
	tests := []struct {
		name  string
		edges map[string][]string
		order []string
		want  []string
	}{
		{
			name:  "acyclic",
			edges: map[string][]string{"a": {"b"}, "b": {"c"}, "c": nil},
			order: []string{"a", "b", "c"},
			want:  nil,
		},
		{
			name:  "self dependency",
			edges: map[string][]string{"a": {"a"}},
			order: []string{"a"},
			want:  []string{"a", "a"},
		},
		{
			name:  "indirect cycle",
			edges: map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}},
			order: []string{"a", "b", "c"},
			want:  []string{"a", "b", "c", "a"},
		},
		{
			name:  "cycle below an acyclic entry",
			edges: map[string][]string{"root": {"x"}, "x": {"y"}, "y": {"x"}},
			order: []string{"root", "x", "y"},
			want:  []string{"x", "y", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New[string]()
			for _, k := range tt.order {
				g.AddNode(k, tt.edges[k]...)
			}

			assert.Equal(t, tt.want, g.FindCycle())
			assert.Equal(t, tt.want == nil, g.IsAcyclic())
		})
	}
}

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	t.Run("dependencies come first", func(t *testing.T) {
		g := New[string]()
		g.AddNode("app", "service", "logger")
		g.AddNode("service", "db", "logger")
		g.AddNode("db", "logger")
		g.AddNode("logger")

		sorted, ok := g.TopologicalSort()
		require.True(t, ok)

		pos := make(map[string]int)
		for i, k := range sorted {
			pos[k] = i
		}
		for _, node := range g.Nodes() {
			for _, dep := range node.Dependencies {
				assert.Less(t, pos[dep], pos[node.Key], "%s before %s", dep, node.Key)
			}
		}
	})

	t.Run("reports cycles", func(t *testing.T) {
		g := New[string]()
		g.AddNode("a", "b")
		g.AddNode("b", "a")

		_, ok := g.TopologicalSort()
		assert.False(t, ok)
	})
}

func TestDependencyGraph_Queries(t *testing.T) {
	g := New[string]()
	g.AddNode("app", "service")
	g.AddNode("service", "db", "logger")
	g.AddNode("db", "logger")
	g.AddNode("logger")

	t.Run("roots and leaves", func(t *testing.T) {
		require.Len(t, g.Roots(), 1)
		assert.Equal(t, "app", g.Roots()[0].Key)
		require.Len(t, g.Leaves(), 1)
		assert.Equal(t, "logger", g.Leaves()[0].Key)
	})

	t.Run("transitive dependencies", func(t *testing.T) {
		assert.Equal(t, []string{"service", "db", "logger"}, g.TransitiveDependencies("app"))
		assert.Empty(t, g.TransitiveDependencies("logger"))
		assert.Nil(t, g.TransitiveDependencies("missing"))
	})

	t.Run("depths", func(t *testing.T) {
		g.CalculateDepths()

		assert.Equal(t, 0, g.Node("logger").Depth)
		assert.Equal(t, 1, g.Node("db").Depth)
		assert.Equal(t, 2, g.Node("service").Depth)
		assert.Equal(t, 3, g.Node("app").Depth)
	})

	t.Run("cycle depths", func(t *testing.T) {
		cyclic := New[string]()
		cyclic.AddNode("top", "a")
		cyclic.AddNode("a", "b")
		cyclic.AddNode("b", "a")
		cyclic.AddNode("leaf")

		cyclic.CalculateDepths()

		assert.Equal(t, -1, cyclic.Node("a").Depth)
		assert.Equal(t, -1, cyclic.Node("b").Depth)
		assert.Equal(t, -1, cyclic.Node("top").Depth)
		assert.Equal(t, 0, cyclic.Node("leaf").Depth)
	})
}

func TestVisualizer(t *testing.T) {
	g := New[string]()
	g.AddNode("service", "logger", "db")
	g.AddNode("db", "logger")
	g.AddNode("logger")
	g.AddNode("worker", "queue")

	v := NewVisualizer(g, func(k string) string { return "<" + k + ">" })

	t.Run("dot", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, v.WriteDOT(&buf))

		out := buf.String()
		assert.Contains(t, out, "digraph dependencies {")
		assert.Contains(t, out, `label="<service>"`)
		assert.Contains(t, out, "n0 -> n1;")
		assert.Contains(t, out, "lightcoral")
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, v.WriteText(&buf))

		out := buf.String()
		assert.Contains(t, out, "Level 0:\n  <logger>\n")
		assert.Contains(t, out, "  <queue> (unregistered)\n")
		assert.Contains(t, out, "Level 2:\n  <service>\n    -> <logger>\n    -> <db>\n")
		assert.Contains(t, out, "Nodes: 5, roots: 2, leaves: 2, unregistered: 1")
	})

	t.Run("text cycles", func(t *testing.T) {
		cyclic := New[string]()
		cyclic.AddNode("a", "b")
		cyclic.AddNode("b", "a")

		var buf bytes.Buffer
		require.NoError(t, NewVisualizer(cyclic, nil).WriteText(&buf))
		assert.Contains(t, buf.String(), "In cycles:\n  a\n    -> b\n  b\n    -> a\n")
	})

	t.Run("write errors are returned", func(t *testing.T) {
		err := v.WriteDOT(failingWriter{})
		assert.ErrorIs(t, err, errWriteFailed)
	})
}

var errWriteFailed = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }
