package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qualigate/internal/recovery"
)

var fixOut string

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix <record.json>",
	Short: "Repair common structural gaps in a record",
	Long: `Fix pads drivers and visual proofs to their minimum counts, fills an
all-zero Cialdini trigger table and adds metadata when it is missing.
The input file is never modified.

Example:
  qualigate fix analysis.json
  qualigate fix analysis.json --out fixed.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().StringVar(&fixOut, "out", "", "write the fixed record to this path")
}

func runFix(cmd *cobra.Command, args []string) error {
	record, err := readRecord(args[0])
	if err != nil {
		return err
	}

	result := recovery.NewAutoFixer(recovery.WithFixLogger(log)).Fix(record)
	if !result.AutoFixSuccessful {
		return fmt.Errorf("auto-fix failed: %s", result.Error)
	}

	if fixOut != "" {
		if err := writeJSONFile(fixOut, result.Data()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Applied %d fixes, wrote %s\n", len(result.FixesApplied), fixOut)
	}

	return render(cmd.OutOrStdout(), result, cfg.Output.Format)
}
