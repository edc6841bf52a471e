// Package cli wires the slidebridge commands: the default bridge run
// and a one-shot connectivity check.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	flagURL      string
	flagOutput   string
	flagConfig   string
	flagInterval time.Duration
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "slidebridge",
	Short: "Mirror OpenLP's live slide text into a CSV file for a video switcher",
	Long: `Slidebridge polls the OpenLP remote-control API and keeps a two-column
CSV file ("Text Layer.csv") in sync with the slide currently on screen,
so a video switcher watching the file can render lyrics and scripture
as a live graphics overlay.

While running:
  Ctrl+C once   suspend or resume the overlay (takes effect after a
                short debounce window)
  Ctrl+C twice  quit

The OpenLP remote URL is asked for on the first run and remembered.`,
	RunE:          runBridge,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("slidebridge version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&flagURL, "url", "u", "", "OpenLP remote base URL (overrides the saved one)")
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "text layer CSV path (default: \"Text Layer.csv\")")
	rootCmd.Flags().DurationVar(&flagInterval, "interval", 0, "poll interval (default: 250ms)")

	rootCmd.AddCommand(checkCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
