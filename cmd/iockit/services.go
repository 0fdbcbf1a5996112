package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/junioryono/ioc"
)

// serviceInfo is the printable form of an ioc.Descriptor.
type serviceInfo struct {
	Key            string   `json:"key" yaml:"key"`
	Lifetime       string   `json:"lifetime" yaml:"lifetime"`
	Implementation string   `json:"implementation,omitempty" yaml:"implementation,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// catalog describes the registrations of a container.
type catalog struct {
	c *ioc.Container
}

func newCatalog(c *ioc.Container) *catalog {
	return &catalog{c: c}
}

// Services lists the registrations in registration order.
func (cat *catalog) Services() []serviceInfo {
	descriptors := cat.c.Descriptors()
	services := make([]serviceInfo, 0, len(descriptors))
	for _, d := range descriptors {
		info := serviceInfo{
			Key:      d.Key.String(),
			Lifetime: d.Lifetime.String(),
		}
		if d.ImplementationType != nil {
			info.Implementation = d.ImplementationType.String()
		}
		for _, dep := range d.Dependencies {
			info.Dependencies = append(info.Dependencies, dep.String())
		}
		services = append(services, info)
	}
	return services
}

func (cat *catalog) Validate() error {
	return cat.c.Validate()
}

func newServicesCmd(a *app) *cobra.Command {
	var (
		output string
		graph  bool
		dot    bool
	)

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the services registered in the iockit container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Validate(); err != nil {
				return fmt.Errorf("container is invalid: %w", err)
			}

			out := cmd.OutOrStdout()
			if graph || dot {
				return c.WriteGraph(out, dot)
			}

			cat, err := ioc.Resolve[*catalog](c)
			if err != nil {
				return err
			}
			return writeServices(out, output, cat.Services())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, yaml or json")
	cmd.Flags().BoolVar(&graph, "graph", false, "print the dependency graph as text")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the dependency graph in DOT format")
	cmd.MarkFlagsMutuallyExclusive("graph", "dot")

	return cmd
}

func writeServices(w io.Writer, format string, services []serviceInfo) error {
	switch format {
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tLIFETIME\tIMPLEMENTATION\tDEPENDENCIES")
		for _, s := range services {
			deps := "-"
			if len(s.Dependencies) > 0 {
				deps = fmt.Sprint(s.Dependencies)
			}
			impl := s.Implementation
			if impl == "" {
				impl = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Key, s.Lifetime, impl, deps)
		}
		return tw.Flush()
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(services); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(services)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
