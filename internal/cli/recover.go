package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/qualigate/internal/audit"
	"github.com/ppiankov/qualigate/internal/llm"
	"github.com/ppiankov/qualigate/internal/model"
	"github.com/ppiankov/qualigate/internal/recovery"
)

var (
	recoverError     string
	recoverComponent string
	recoverContext   string
	recoverProbe     bool
	recoverTimeout   time.Duration
)

// recoverCmd represents the recover command
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Classify a failure and apply a recovery strategy",
	Long: `Recover classifies an analysis failure and applies the matching strategy:
- AI provider reset with a trial generation, or templated fallback content
- Missing capability substitution
- Data structure normalization
- Templated data for failed driver, visual proof or anti-objection components
- Relaxed validation

Every error and recovery result is written to the configured audit store.

Example:
  qualigate recover --error "'AIManager' object has no attribute '_try_fallback'"
  qualigate recover --error "timeout" --component drivers_mentais --context ctx.json
  qualigate recover --error "provider down" --probe`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVar(&recoverError, "error", "", "error message to recover from (required)")
	recoverCmd.Flags().StringVar(&recoverComponent, "component", "", "name of the component that failed")
	recoverCmd.Flags().StringVar(&recoverContext, "context", "", "JSON file with the analysis context")
	recoverCmd.Flags().BoolVar(&recoverProbe, "probe", false, "report AI provider health before recovering")
	recoverCmd.Flags().DurationVar(&recoverTimeout, "timeout", 2*time.Minute, "overall timeout")
	_ = recoverCmd.MarkFlagRequired("error")
}

// recoverReport is the command output
type recoverReport struct {
	Health  *llm.Health            `json:"provider_health,omitempty"`
	Outcome *model.RecoveryOutcome `json:"outcome"`
}

func runRecover(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), recoverTimeout)
	defer cancel()

	data, err := readContext(recoverContext)
	if err != nil {
		return err
	}

	store, err := audit.New(cfg.Audit)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close audit store: %w", closeErr)
		}
	}()

	gateway := llm.NewGatewayFromConfig(cfg.LLM, log)

	var report recoverReport
	if recoverProbe {
		h := gateway.Health(ctx)
		report.Health = &h
		log.Info("AI provider health", "status", h.Status, "available", h.Available, "total", h.Total)
	}

	system := recovery.NewSystem(cfg.Recovery,
		recovery.WithSink(store),
		recovery.WithGateway(gateway),
		recovery.WithLogger(log),
	)
	report.Outcome = system.Recover(ctx, errors.New(recoverError), data, recoverComponent)

	if !report.Outcome.RecoverySuccessful {
		fmt.Fprintf(os.Stderr, "⚠️  Recovery degraded: %s\n", report.Outcome.Method)
	}
	return render(cmd.OutOrStdout(), report, cfg.Output.Format)
}

// readContext loads the optional JSON context mapping
func readContext(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return data, nil
}
