// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	storage "github.com/tidecloud/tidecloud-sdk-go"
	"github.com/tidecloud/tidecloud-sdk-go/storagetypes"
)

var cfgFile string
var logger *logrus.Logger

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tidecli",
	Short: "Command-line client for Tide Cloud storage",
	Long: `tidecli uploads, downloads, and lists resources in a Tide Cloud
storage account. Credentials come from flags, the config file, or the
TIDECLOUD_ACCOUNT / TIDECLOUD_KEY environment variables.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
		initLogger()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main() and only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tidecli.yaml)")
	rootCmd.PersistentFlags().String("account", "", "storage account name")
	rootCmd.PersistentFlags().String("key", "", "base64-encoded account key")
	rootCmd.PersistentFlags().String("endpoint", "", "custom service endpoint")
	rootCmd.PersistentFlags().Int("parallelism", storagetypes.DefaultParallelism, "concurrent range operations per transfer")
	rootCmd.PersistentFlags().Int64("chunk-size", storagetypes.DefaultChunkSize, "range size in bytes for chunked transfers")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotated file instead of stderr")

	for _, flag := range []string{"account", "key", "endpoint", "parallelism", "chunk-size", "verbose", "log-file"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".tidecli")
	}

	viper.SetEnvPrefix("tidecloud")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

// initLogger configures logrus, optionally with file rotation.
func initLogger() {
	logger = logrus.New()
	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	if logFile := viper.GetString("log-file"); logFile != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MiB
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
}

// newClient builds a storage client from the resolved configuration.
func newClient() (*storage.Client, error) {
	account := viper.GetString("account")
	key := viper.GetString("key")
	if account == "" || key == "" {
		return nil, fmt.Errorf("account and key are required (flags, config file, or TIDECLOUD_ACCOUNT/TIDECLOUD_KEY)")
	}

	clientOpts := []storagetypes.Option{
		storage.WithParallelism(viper.GetInt("parallelism")),
		storage.WithChunkSize(viper.GetInt64("chunk-size")),
		storage.WithLogger(logger),
	}
	if endpoint := viper.GetString("endpoint"); endpoint != "" {
		clientOpts = append(clientOpts, storage.WithEndpoint(endpoint))
	}
	return storage.New(account, key, clientOpts...)
}
