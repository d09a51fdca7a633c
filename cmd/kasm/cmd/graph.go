package cmd

import (
	"fmt"
	"strings"

	"github.com/kasm-riscv/kasm/internal/arch"
	"github.com/spf13/cobra"
)

var asDOT bool

var graphCmd = &cobra.Command{
	Use:     "graph <formula>",
	GroupID: "operations",
	Short:   "Print the extension dependency graph for a formula",
	Long: `graph resolves the named extension formula (the same comma-separated
list accepted by --formula elsewhere) and prints its dependency graph, either
as an indented tree or, with --dot, as Graphviz DOT.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setupEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		extensions := strings.Split(args[0], ",")
		assembler := arch.NewAssembler(env.Provider)
		if _, err := assembler.Assemble(arch.NewFormula(archName, extensions...)); err != nil {
			return fmt.Errorf("kasm: failed to resolve architecture: %w", err)
		}

		if asDOT {
			fmt.Fprintln(cmd.OutOrStdout(), assembler.DependencyDOT())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), assembler.DependencyTree())
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().BoolVar(&asDOT, "dot", false, "render as Graphviz DOT instead of an indented tree")
	graphCmd.Flags().StringVar(&archName, "arch", "riscv32", "architecture name recorded in the assembled program")
}
