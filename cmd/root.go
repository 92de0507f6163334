package cmd

import (
	"fmt"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/glacierdb/glacier/pkg/application"
)

var (
	// Version information (set by ldflags)
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// Global flags
	configFile string
	logLevel   string
	chainData  string
	ancientDir string

	// Application context
	app = application.New()
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "glacier",
		Short: "Direct reader for geth chain data",
		Long: `glacier reads a go-ethereum node's on-disk chain data without going
through the node: historical blocks from the append-only ancient archive and
recent blocks from the key-value store.`,
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application context
			return initializeApp()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./glacier.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&chainData, "chaindata", "", "path to the node's chaindata directory")
	rootCmd.PersistentFlags().StringVar(&ancientDir, "ancient", "", "path to the ancient archive (default is <chaindata>/ancient)")

	// Initialize config
	cobra.OnInitialize(initConfig)

	// Add commands
	rootCmd.AddCommand(NewHeaderCmd(app))
	rootCmd.AddCommand(NewHashCmd(app))
	rootCmd.AddCommand(NewStatusCmd(app))
	rootCmd.AddCommand(NewVerifyCmd(app))
	rootCmd.AddCommand(NewIndexCmd(app))
	rootCmd.AddCommand(NewScanCmd(app))

	return rootCmd
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("glacier")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GLACIER")
	viper.AutomaticEnv()

	// The config file is optional
	_ = viper.ReadInConfig()
}

func initializeApp() error {
	// Flags win, then config file / environment
	if chainData == "" {
		chainData = viper.GetString("chaindata")
	}
	if ancientDir == "" {
		ancientDir = viper.GetString("ancient")
	}

	// Initialize logger
	logger := log.NewLogger("glacier")

	app.Setup(chainData, ancientDir, logger, viper.GetViper())
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
