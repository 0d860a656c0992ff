package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/qualigate/internal/validate"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources <record.json>",
	Short: "Report where a record's research data came from",
	Long: `Sources inspects the web research results embedded in a record:
- Share of results from trusted domains
- Distinct and unverified registrable domains
- Simulated or fallback content markers

Example:
  qualigate sources analysis.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := readRecord(args[0])
		if err != nil {
			return err
		}
		sv := validate.NewSourceValidator(&cfg.Sources).ValidateDataSources(record)
		log.Debug("source validation complete", "total", sv.TotalSources, "verified", sv.VerifiedSources)
		return render(cmd.OutOrStdout(), sv, cfg.Output.Format)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
