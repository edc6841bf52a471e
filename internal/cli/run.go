package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/slidebridge/slidebridge/internal/config"
	"github.com/slidebridge/slidebridge/internal/console"
	"github.com/slidebridge/slidebridge/internal/interrupt"
	"github.com/slidebridge/slidebridge/internal/layer"
	"github.com/slidebridge/slidebridge/internal/logging"
	"github.com/slidebridge/slidebridge/internal/loop"
	"github.com/slidebridge/slidebridge/internal/openlp"
)

func runBridge(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logging.SetLevel(logging.LevelDebug)
	}

	cfgPath, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	remoteURL, err := resolveRemoteURL(cmd, cfg)
	if err != nil {
		return err
	}

	// Remember the URL for the next run. Best effort: a read-only
	// config dir should not stop a broadcast.
	if cfg.RemoteURL != remoteURL {
		cfg.RemoteURL = remoteURL
		if err := config.Save(cfgPath, cfg); err != nil {
			logging.Default().Warn("persist config", "path", cfgPath, "error", err)
		}
	}

	client, err := openlp.NewClient(remoteURL, openlp.WithTimeout(cfg.RequestTimeout()))
	if err != nil {
		return fmt.Errorf("invalid remote URL: %w", err)
	}
	writer := layer.NewWriter(cfg.OutputPath)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "======================")
	fmt.Fprintf(out, "Bridging OpenLP at %s\n", remoteURL)
	fmt.Fprintf(out, "Writing text layer to %s\n", writer.Path())
	fmt.Fprintln(out, "Press Ctrl+C once to suspend/resume, twice to quit")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	printer := console.NewPrinter(out)
	defer printer.Close()

	handler := interrupt.New(interrupt.Options{
		Window: cfg.DebounceWindow(),
		OnExit: cancel,
		Notify: printer.Notice,
	})

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			handler.Interrupt()
		}
	}()

	result := loop.New(loop.Options{
		Fetcher:       client,
		Writer:        writer,
		Suspended:     handler.Suspended,
		Notify:        printer.Notice,
		Status:        printer.Status,
		PollInterval:  cfg.PollInterval(),
		RetryInterval: cfg.RetryInterval(),
		ClearOnExit:   !cfg.KeepOnExit,
	}).Run(ctx)

	printer.Close()
	switch result.Reason {
	case loop.ExitReasonWriteError:
		return result.Err
	default:
		fmt.Fprintln(out, "Shutting down.")
		return nil
	}
}

// loadConfig resolves the config path and loads it, applying any flag
// overrides on top.
func loadConfig() (string, *config.Config, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return "", nil, err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", nil, err
	}

	if flagOutput != "" {
		cfg.OutputPath = flagOutput
	}
	if flagInterval > 0 {
		cfg.PollIntervalMS = int(flagInterval.Milliseconds())
	}
	if err := config.Validate(cfg); err != nil {
		return "", nil, err
	}
	return cfgPath, cfg, nil
}
