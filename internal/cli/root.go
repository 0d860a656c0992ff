package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string

	// Loaded once per invocation by the root PersistentPreRunE
	cfg model.Config
	log *logger.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qualigate",
	Short: "Qualigate - quality gate and error recovery for generated marketing analyses",
	Long: `Qualigate scores generated marketing-analysis records before they are used.

It checks mental drivers, visual proofs, the anti-objection system, the
avatar and forensic metrics, aggregates a weighted quality score and
reports critical issues, warnings and recommendations.

When an analysis step fails, qualigate classifies the error and applies a
recovery strategy so the pipeline can continue with degraded data.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of qualigate.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "qualigate %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.qualigate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "output format: json or yaml (default from config)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and QUALIGATE_* variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if err := setDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading defaults: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".qualigate"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("QUALIGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default so env variables can override nested keys
func setDefaults(defaults model.Config) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	for key, value := range m {
		viper.SetDefault(key, value)
	}
	return nil
}

// loadRuntime decodes and validates the configuration and builds the logger
func loadRuntime(cmd *cobra.Command, args []string) error {
	loaded, err := decodeConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	log, err = logger.New(cfg.Output.LogMode, cfg.Output.Verbose)
	if err != nil {
		return err
	}
	log.Debug("configuration loaded", "config_file", viper.ConfigFileUsed(), "providers", len(cfg.LLM.Providers))
	return nil
}

func decodeConfig() (model.Config, error) {
	loaded := model.DefaultConfig()
	if err := viper.Unmarshal(&loaded); err != nil {
		return model.Config{}, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(&loaded.LLM)
	if err := loaded.Validate(); err != nil {
		return model.Config{}, err
	}
	return loaded, nil
}

// applyProviderEnv fills provider credentials from the conventional
// environment variables. Without configured providers, every provider with
// credentials in the environment is enabled.
func applyProviderEnv(llmCfg *model.LLMConfig) {
	env := map[string]model.ProviderConfig{
		"openai":    {Name: "openai", APIKey: os.Getenv("OPENAI_API_KEY")},
		"anthropic": {Name: "anthropic", APIKey: os.Getenv("ANTHROPIC_API_KEY")},
		"ollama":    {Name: "ollama", BaseURL: os.Getenv("OLLAMA_BASE_URL"), Model: os.Getenv("OLLAMA_MODEL")},
	}

	if len(llmCfg.Providers) == 0 {
		for _, name := range []string{"openai", "anthropic", "ollama"} {
			p := env[name]
			if p.APIKey != "" || (p.BaseURL != "" && p.Model != "") {
				llmCfg.Providers = append(llmCfg.Providers, p)
			}
		}
		return
	}

	for i, p := range llmCfg.Providers {
		name := strings.ToLower(p.Name)
		if name == "claude" {
			name = "anthropic"
		}
		fromEnv := env[name]
		if p.APIKey == "" {
			llmCfg.Providers[i].APIKey = fromEnv.APIKey
		}
		if p.BaseURL == "" {
			llmCfg.Providers[i].BaseURL = fromEnv.BaseURL
		}
		if p.Model == "" {
			llmCfg.Providers[i].Model = fromEnv.Model
		}
	}
}
