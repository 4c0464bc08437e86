package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsboard/opsboard/cache"
	"github.com/opsboard/opsboard/gateway"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "opsboard",
	Short: "opsboard tracks the team's tasks from the terminal.",
	Long: `opsboard is a task board for a small operations team.
It keeps a local cache in sync with a shared task store, live: edits made
by teammates show up on your board as they happen.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.opsboard.yaml or ./.opsboard.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// GetGateway builds the configured store gateway.
func GetGateway() (gateway.Gateway, error) {
	config := GetConfig()

	switch config.Gateway.Backend {
	case "sqlite":
		gw, err := gateway.NewSQLiteGateway(config.Gateway.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store at %s: %w", config.Gateway.Path, err)
		}
		return gw, nil
	case "http":
		if config.Gateway.URL == "" {
			return nil, fmt.Errorf("gateway.url must be set for the http backend")
		}
		return gateway.NewHTTPGateway(config.Gateway.URL, config.Gateway.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown gateway backend %q", config.Gateway.Backend)
	}
}

// newCache builds a cache over the configured gateway. The returned cleanup
// closes the gateway.
func newCache() (*cache.Cache, gateway.Gateway, func(), error) {
	gw, err := GetGateway()
	if err != nil {
		return nil, nil, nil, err
	}

	c := cache.New(gw)
	if verbose {
		c.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return c, gw, func() { _ = gw.Close() }, nil
}
