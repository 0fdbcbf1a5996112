package ioc

import (
	"fmt"
	"io"
	"strings"

	"github.com/junioryono/ioc/internal/graph"
)

// MissingDependencyError reports a declared dependency with no registration.
type MissingDependencyError struct {
	Key        Key
	Dependency Key
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("%s depends on %s, which is not registered", e.Key, e.Dependency)
}

func (e MissingDependencyError) Unwrap() error {
	return ErrServiceNotFound
}

// ValidationError aggregates the problems found by Validate.
type ValidationError struct {
	Errors []error
}

func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("container validation failed with %d error(s):", len(e.Errors)))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n    "))
	}
	return b.String()
}

func (e ValidationError) Unwrap() []error {
	return e.Errors
}

// Validate checks the dependencies recorded by Provide and Bind without
// constructing anything. It reports dependencies that are not registered on
// c or its parents, and dependency cycles. A singleton's dependencies must be
// visible from the container that holds it, since that is where they are
// resolved. Plain factories declare no dependencies and are only checked
// when resolved.
func (c *Container) Validate() error {
	g := c.dependencyGraph()

	var errs []error
	for _, node := range g.Nodes() {
		owner, reg := c.lookup(node.Key)
		if reg == nil {
			continue
		}

		// Singletons resolve their dependencies from the owning container.
		scope := c
		if reg.lifetime == Singleton {
			scope = owner
		}

		for _, dep := range node.Dependencies {
			if !scope.Contains(dep) {
				errs = append(errs, MissingDependencyError{Key: node.Key, Dependency: dep})
			}
		}
	}

	if cycle := g.FindCycle(); cycle != nil {
		errs = append(errs, CircularDependencyError{Path: cycle})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// WriteGraph writes the dependency graph of the registrations visible from c
// in Graphviz DOT format, or as indented text when dot is false.
func (c *Container) WriteGraph(w io.Writer, dot bool) error {
	v := graph.NewVisualizer(c.dependencyGraph(), Key.String)
	if dot {
		return v.WriteDOT(w)
	}
	return v.WriteText(w)
}

// dependencyGraph builds a graph of every registration visible from c.
// Registrations on c shadow those of its parents.
func (c *Container) dependencyGraph() *graph.DependencyGraph[Key] {
	g := graph.New[Key]()
	seen := make(map[Key]bool)

	for current := c; current != nil; current = current.parent {
		for _, d := range current.Descriptors() {
			if seen[d.Key] {
				continue
			}
			seen[d.Key] = true
			g.AddNode(d.Key, d.Dependencies...)
		}
	}

	return g
}
