package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/gridsim/app/plugins"
	"github.com/kilianp07/gridsim/core/topology"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print the addressed node tree of a configuration",
	RunE:  printTopology,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration without running it",
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(topologyCmd)
	rootCmd.AddCommand(validateCmd)
}

func parseTree() (*topology.Tree, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	f, err := plugins.NewFactory()
	if err != nil {
		return nil, err
	}
	return topology.Parse(cfg.Document(), f)
}

type topologyView struct {
	Ticks       int             `yaml:"ticks"`
	Step        string          `yaml:"step"`
	Network     topology.View   `yaml:"network"`
	Interaction []topology.View `yaml:"interaction_assets,omitempty"`
}

func printTopology(cmd *cobra.Command, args []string) error {
	tree, err := parseTree()
	if err != nil {
		return err
	}
	v := topologyView{Ticks: tree.Window.Ticks(), Step: tree.Window.Step().String(), Network: tree.Root.Describe()}
	for _, n := range tree.Interaction {
		v.Interaction = append(v.Interaction, n.Describe())
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func validateConfig(cmd *cobra.Command, args []string) error {
	tree, err := parseTree()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d nodes, height %d, %d ticks of %v\n",
		len(tree.Nodes()), tree.Height(), tree.Window.Ticks(), tree.Window.Step())
	return err
}
