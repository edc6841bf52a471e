package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slidebridge/slidebridge/internal/config"
	"github.com/slidebridge/slidebridge/internal/openlp"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll OpenLP once and print what would be written",
	Long: `Check connects to the configured OpenLP remote, performs a single
poll, and prints the screen state without touching the text layer file.
Useful for verifying the URL and the footer mapping before a service.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	remoteURL := flagURL
	if remoteURL == "" {
		remoteURL = cfg.RemoteURL
	}
	if remoteURL == "" {
		return fmt.Errorf("no OpenLP URL configured; pass --url or run slidebridge once")
	}
	remoteURL, err = config.NormalizeURL(remoteURL)
	if err != nil {
		return err
	}

	client, err := openlp.NewClient(remoteURL, openlp.WithTimeout(cfg.RequestTimeout()))
	if err != nil {
		return err
	}

	state, err := client.FetchCurrent(cmd.Context())
	if err != nil {
		return fmt.Errorf("cannot reach OpenLP at %s: %w", remoteURL, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "OpenLP at %s is reachable\n", remoteURL)
	switch state.Kind {
	case openlp.ScreenBlanked:
		fmt.Fprintf(out, "Screen is %s\n", state.Blank)
	case openlp.ScreenShowing:
		if state.Title != "" {
			fmt.Fprintf(out, "Live item: %s (slide %d of %d)\n", state.Title, state.Slide+1, state.SlideCount)
		} else {
			fmt.Fprintln(out, "Nothing is live")
		}
		fmt.Fprintf(out, "Body:   %q\n", state.Content.Body)
		fmt.Fprintf(out, "Footer: %q\n", state.Content.Footer)
	}
	return nil
}
