package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Test()
			if err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Lint()
			if err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Integ()
			if err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// SimCmd smoke-tests a built binary against the simulated buses.
func SimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run dist/i2cm scan and eeprom read on simulated buses",
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := cmd.Flags().GetString("bin")
			if err != nil {
				return fmt.Errorf("could not get bin flag: %w", err)
			}
			for _, run := range [][]string{
				{"--sim", "scan"},
				{"--sim", "eeprom", "read", "0", "32"},
				{"--sim", "status"},
			} {
				slog.Info("running", "bin", bin, "args", run)
				c := exec.CommandContext(cmd.Context(), bin, run...)
				c.Stdout = os.Stdout
				c.Stderr = os.Stderr
				if err := c.Run(); err != nil {
					return fmt.Errorf("i2cm %v failed: %w", run, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("bin", "dist/i2cm", "i2cm binary to exercise")
	return cmd
}
