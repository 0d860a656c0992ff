package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qualigate/internal/cache"
	"github.com/ppiankov/qualigate/internal/score"
	"github.com/ppiankov/qualigate/internal/validate"
)

var (
	withSources bool
	noCache     bool
	strict      bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <record.json>",
	Short: "Score a complete analysis record",
	Long: `Validate runs every component validator over an analysis record:
- Mental drivers, visual proofs and the anti-objection system
- Avatar depth and forensic persuasion metrics
- Weighted quality score against the quality gate
- Critical issues, warnings and recommendations

Example:
  qualigate validate analysis.json
  qualigate validate analysis.json --sources --format yaml
  qualigate validate analysis.json --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&withSources, "sources", false, "also validate research data sources")
	validateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the validation result cache")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when the record fails the quality gate")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	record, err := readRecord(path)
	if err != nil {
		return err
	}

	if noCache {
		cfg.Cache.Enabled = false
	}
	results, err := cache.NewResults(cache.New(cfg.Cache), cfg)
	if err != nil {
		return err
	}

	result, hit := results.Get(record)
	if hit {
		log.Debug("validation result served from cache", "path", path)
	} else {
		engine := score.NewEngine(cfg, log)
		result = engine.ValidateCompleteAnalysis(record)
		if err := results.Put(record, result); err != nil {
			log.Warn("failed to cache validation result", "path", path, "error", err)
		}
	}

	// Source validation is cheap and not cached
	if withSources {
		sv := validate.NewSourceValidator(&cfg.Sources).ValidateDataSources(record)
		result.Sources = &sv
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Quality score: %.1f/100\n", result.QualityScore)
		fmt.Fprintf(os.Stderr, "✓ Critical issues: %d, warnings: %d\n", len(result.CriticalIssues), len(result.Warnings))
		fmt.Fprintln(os.Stderr)
	}

	if err := render(cmd.OutOrStdout(), result, cfg.Output.Format); err != nil {
		return err
	}

	if strict && !result.OverallValid {
		return fmt.Errorf("record failed the quality gate: score %.1f, %d critical issues",
			result.QualityScore, len(result.CriticalIssues))
	}
	return nil
}
