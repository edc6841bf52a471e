package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/slidebridge/slidebridge/internal/config"
	"github.com/slidebridge/slidebridge/internal/openlp"
)

// resolveRemoteURL decides which OpenLP URL to use: the --url flag wins,
// then the persisted config, then an interactive prompt. Flag and
// config URLs are trusted as-is (beyond normalization); a freshly
// entered one is verified against the remote before it is accepted.
func resolveRemoteURL(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if flagURL != "" {
		return config.NormalizeURL(flagURL)
	}
	if cfg.RemoteURL != "" {
		return config.NormalizeURL(cfg.RemoteURL)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no OpenLP URL configured; pass --url or run interactively once")
	}

	verify := func(ctx context.Context, url string) error {
		client, err := openlp.NewClient(url, openlp.WithTimeout(cfg.RequestTimeout()))
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	}
	return promptURL(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg.RemoteURL, verify)
}

// promptURL asks the operator for the OpenLP remote URL, offering
// previous as the ENTER default, and loops until a URL verifies.
func promptURL(ctx context.Context, in io.Reader, out io.Writer, previous string, verify func(context.Context, string) error) (string, error) {
	fmt.Fprintln(out, "Enter the URL for the OpenLP Remote to connect to.")
	if previous != "" {
		fmt.Fprintf(out, "(Press ENTER to use %s, Ctrl+C to cancel)\n", previous)
	} else {
		fmt.Fprintln(out, "(Press Ctrl+C to cancel)")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "URL: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read URL: %w", err)
			}
			return "", fmt.Errorf("no URL entered")
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			if previous == "" {
				fmt.Fprintln(out, "(Press Ctrl+C to cancel)")
				continue
			}
			input = previous
		}

		url, err := config.NormalizeURL(input)
		if err != nil {
			fmt.Fprintf(out, "Invalid URL entered (%v)\n", err)
			continue
		}

		if err := verify(ctx, url); err != nil {
			fmt.Fprintf(out, "Cannot connect to OpenLP at %s:\n%v\n", url, err)
			continue
		}
		return url, nil
	}
}
