package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	NoColor    bool

	// Service flags
	BaseURL string
	Token   string
	Output  string

	// Bandwidth limits preview and file downloads, e.g. "10M"
	Bandwidth string

	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "", "config file (default is $HOME/.config/doccompare/config.yaml)")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "suppress non-error output")
	flags.BoolVar(&globalFlags.NoColor, "no-color", false, "disable colored output")

	flags.StringVar(&globalFlags.BaseURL, "url", "", "comparison service base URL")
	flags.StringVar(&globalFlags.Token, "token", "", "bearer token (default read from $DOCCOMPARE_TOKEN)")
	flags.StringVarP(&globalFlags.Output, "output", "o", "", "output format: human, json, html")
	flags.StringVarP(&globalFlags.Bandwidth, "bandwidth", "b", "", "download bandwidth limit (e.g., \"10M\", \"1G\")")

	flags.StringVar(&globalFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "", "log format: text, json")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}
