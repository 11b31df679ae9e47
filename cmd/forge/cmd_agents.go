package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/forge/internal/agents"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spf13/cobra"
)

func newAgentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect configured agents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured producers and evaluators",
		Args:  cobra.NoArgs,
		RunE:  agentsListE,
	})

	return cmd
}

func agentsListE(cmd *cobra.Command, args []string) error {
	cfg, err := projectconfig.Load(configDir)
	if err != nil {
		return err
	}

	registry := agents.NewRegistry()
	out := cmd.OutOrStdout()
	printAgents(out, "PRODUCERS", cfg.Producers, cfg.Defaults.Model)
	fmt.Fprintf(out, "Registered kinds: %s\n\n", joinKinds(registry.Kinds(models.RoleProducer)))
	printAgents(out, "EVALUATORS", cfg.Evaluators, cfg.Defaults.Model)
	fmt.Fprintf(out, "Registered kinds: %s\n", joinKinds(registry.Kinds(models.RoleEvaluator)))
	return nil
}

func printAgents(out io.Writer, title string, list []projectconfig.AgentConfig, defaultModel string) {
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "%-24s %-8s %-16s %s\n", "Name", "Kind", "Model", "Active")
	for _, a := range list {
		kind := a.Kind
		if kind == "" {
			kind = projectconfig.DefaultAgentKind
		}
		model := a.Model
		if model == "" {
			model = defaultModel + " (default)"
		}
		active := "yes"
		if !a.IsActive() {
			active = "no"
		}
		fmt.Fprintf(out, "%-24s %-8s %-16s %s\n", a.Name, kind, model, active)
	}
	fmt.Fprintln(out)
}

func joinKinds(kinds []agents.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
