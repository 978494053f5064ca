package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/photo-assistant/internal/config"
	"github.com/menta2k/photo-assistant/internal/logging"
	"github.com/menta2k/photo-assistant/internal/utils"
)

var (
	configFile string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "photo-assistant",
	Short: "Group near-duplicate photos by perceptual color difference",
	Long: `Photo Assistant compares photos pixel by pixel after shrinking them to a
common size and groups shots that look alike, so bursts and repeated
frames can be reviewed together and the best one kept.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+config.GetConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
}

func initEnv() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the config file, applies environment overrides and sets
// up logging. Flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return nil, err
	}
	return cfg, nil
}
