package cmd

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run <file>",
	GroupID: "operations",
	Short:   "Assemble a kasm source file and run it to completion",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setupEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		architecture, fr, err := assembleFile(env, args[0])
		if err != nil {
			return err
		}
		for _, entry := range fr.Diagnostics.Entries() {
			fmt.Fprintln(cmd.ErrOrStderr(), entry)
		}
		if fr.Diagnostics.HasErrors() {
			return fmt.Errorf("kasm: assembly failed with errors")
		}

		env.Logger.Info("running", "max-steps", env.Config.Execution.MaxRunSteps)
		if err := fr.Run(env.Config.Execution.MaxRunSteps); err != nil {
			return fmt.Errorf("kasm: %w", err)
		}
		env.Logger.Info("run complete")

		for _, unit := range architecture.Units {
			for name := range unit.Registers {
				v, err := fr.Store.GetRegister(name)
				if err != nil {
					continue
				}
				n, err := memvalue.ToInteger(v, architecture.Endianness, memvalue.TwosComplement)
				if err != nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-8s 0x%X (%d)\n", name, uint64(n), n)
			}
		}
		return nil
	},
}
