package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qualigate/internal/cache"
	"github.com/ppiankov/qualigate/internal/score"
	"github.com/ppiankov/qualigate/internal/validate"
	"github.com/ppiankov/qualigate/internal/worker"
)

var (
	concurrency  int
	batchOut     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Validate every record in a directory in parallel",
	Long: `Batch validates every *.json analysis record in a directory:
- Records are validated concurrently with a configurable worker count
- Unchanged records reuse cached verdicts
- Throughput can be capped with rate_limiting.records_per_second

Example:
  qualigate batch ./analyses
  qualigate batch ./analyses --concurrency 8 --sources
  qualigate batch ./analyses --out results.json --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers, or NumCPU)")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "write all results to this JSON file")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&withSources, "sources", false, "also validate research data sources")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the validation result cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	engine := score.NewEngine(cfg, log)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Qualigate Batch Validation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Directory:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  Components:   %s\n", strings.Join(engine.Components(), ", "))
	fmt.Fprintf(os.Stderr, "\n")

	results, err := cache.NewResults(cache.New(cfg.Cache), cfg)
	if err != nil {
		return err
	}

	opts := []worker.BatchOption{
		worker.WithResultCache(results),
		worker.WithLimiter(worker.NewLimiter(cfg.RateLimiting.RecordsPerSecond, cfg.RateLimiting.BurstSize)),
		worker.WithBatchLogger(log),
	}
	if withSources {
		opts = append(opts, worker.WithSources(validate.NewSourceValidator(&cfg.Sources)))
	}
	processor := worker.NewBatchProcessor(engine, workers, opts...)

	records, err := processor.ProcessDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	passed, failed, errored := 0, 0, 0
	for _, r := range records {
		switch {
		case r.Error != nil:
			errored++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Path, r.Error)
		case r.Result.OverallValid:
			passed++
			fmt.Fprintf(os.Stderr, "✓ %s (quality: %.1f/100)\n", r.Path, r.Result.QualityScore)
		default:
			failed++
			fmt.Fprintf(os.Stderr, "⚠️  %s (quality: %.1f/100, %d critical)\n", r.Path, r.Result.QualityScore, len(r.Result.CriticalIssues))
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d records\n", len(records))
	fmt.Fprintf(os.Stderr, "  Passed:    %d\n", passed)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	fmt.Fprintf(os.Stderr, "\n")

	if batchOut != "" {
		return writeJSONFile(batchOut, records)
	}
	return nil
}
