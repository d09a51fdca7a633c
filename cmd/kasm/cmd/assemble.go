package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kasm-riscv/kasm/internal/arch"
	"github.com/kasm-riscv/kasm/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	formulaFlag string
	archName    string
)

var assembleCmd = &cobra.Command{
	Use:     "assemble <file>",
	GroupID: "operations",
	Short:   "Assemble a kasm source file and report diagnostics",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setupEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		_, fr, err := assembleFile(env, args[0])
		if err != nil {
			return err
		}

		for _, entry := range fr.Diagnostics.Entries() {
			fmt.Fprintln(cmd.OutOrStdout(), entry)
		}
		if fr.Diagnostics.HasErrors() {
			return fmt.Errorf("kasm: assembly failed with errors")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "assembled %d instruction(s)\n", len(fr.Instructions))
		for name, addr := range fr.Labels {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s 0x%X\n", name, addr)
		}
		return nil
	},
}

func init() {
	defaultFormula := strings.Join([]string{"rv32i", "rv32m"}, ",")
	assembleCmd.Flags().StringVar(&formulaFlag, "formula", defaultFormula, "comma-separated extension names, base first")
	assembleCmd.Flags().StringVar(&archName, "arch", "riscv32", "architecture name recorded in the assembled program")
	runCmd.Flags().AddFlagSet(assembleCmd.Flags())
	graphCmd.Flags().StringVar(&formulaFlag, "formula", defaultFormula, "comma-separated extension names, base first")
}

// assembleFile loads, resolves, and assembles path's source against the
// extension formula named by --formula/--arch, returning the resolved
// Architecture alongside the FinalRepresentation.
func assembleFile(env *environment, path string) (arch.Architecture, *pipeline.FinalRepresentation, error) {
	extensions := strings.Split(formulaFlag, ",")
	assembler := arch.NewAssembler(env.Provider)
	architecture, err := assembler.Assemble(arch.NewFormula(archName, extensions...))
	if err != nil {
		return arch.Architecture{}, nil, fmt.Errorf("kasm: failed to resolve architecture: %w", err)
	}
	env.Logger.Debug("architecture resolved", "name", architecture.Name, "word-size", architecture.WordSize)

	source, err := os.ReadFile(path) // #nosec G304 -- caller-provided assembly source path
	if err != nil {
		return arch.Architecture{}, nil, fmt.Errorf("kasm: failed to read %q: %w", path, err)
	}

	env.Logger.Info("assembling", "file", path)
	fr, err := pipeline.Assemble(architecture, path, string(source), env.Config.Execution.MainMemorySize)
	if err != nil {
		return arch.Architecture{}, nil, fmt.Errorf("kasm: %w", err)
	}
	return architecture, fr, nil
}
