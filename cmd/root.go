package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/livefield/internal/config"
	"github.com/conneroisu/livefield/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "livefield",
	Short: "Live preview of record fields",
	Long: `livefield resolves partial identifiers such as record[post][42][title]
and renders the named field of the record as an HTML fragment, honoring
password protection and private status.

Quick Start:
  livefield serve                          Start the preview host
  livefield render 'record[post][1][body]' Render one field
  livefield inspect 'record[post][1]'      Show exported partial state`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .livefield.yml, can also use LIVEFIELD_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig sets up the config file search and LIVEFIELD_ environment
// binding. A --config flag wins over LIVEFIELD_CONFIG_FILE, which wins over
// .livefield.yml in the working directory.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LIVEFIELD_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".livefield")
	}

	viper.SetEnvPrefix("LIVEFIELD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config files fall back to defaults
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from configuration.
func newLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logCfg.Level = level
	}
	logCfg.Format = cfg.Logging.Format
	logCfg.Component = "livefield"
	return logging.NewLogger(logCfg)
}
