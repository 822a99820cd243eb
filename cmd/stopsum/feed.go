package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"stopsum/pkg/auth"
	"stopsum/pkg/config"
	"stopsum/pkg/logger"
	"stopsum/pkg/scraper"
	"stopsum/pkg/ui"
	"stopsum/pkg/ui/tui"
)

var (
	// Feed command flags
	feedSince        string
	feedUntil        string
	feedOutput       string
	feedApp          string
	feedRateLimit    int
	feedMaxRetries   int
	feedResume       bool
	feedForceRestart bool
	feedTUI          bool
	feedNotify       bool
)

// newCredentialManager is replaced in tests
var newCredentialManager = auth.NewManager

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed <page>",
	Short: "Export a public page feed to CSV",
	Long: `Export every post of a public page published within a date window to
<output>/<page>.csv with the columns

  id,type,date,time,message_length,shares_count,likes_count,comments_count

Graph API app credentials are taken from the configuration, the environment
(STOPSUM_APP_ID and STOPSUM_APP_SECRET) or the credential store
(see 'stopsum auth login').

Progress is checkpointed after every page. An interrupted export can be
continued with --resume; rows already in the CSV are not written twice.`,
	Example: `  # Export 2010 through 2015
  stopsum feed bbcnews

  # Export one year into ./feeds using a stored app
  stopsum feed bbcnews --since 2015-01-01 --until 2016-01-01 --output ./feeds --app research

  # Continue an interrupted export with the dashboard
  stopsum feed bbcnews --resume --tui`,
	Args: cobra.ExactArgs(1),
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().StringVar(&feedSince, "since", "", "first day of the export window, YYYY-MM-DD (default from config)")
	feedCmd.Flags().StringVar(&feedUntil, "until", "", "day after the export window, YYYY-MM-DD (default from config)")
	feedCmd.Flags().StringVarP(&feedOutput, "output", "o", "", "output directory for the CSV (default from config)")
	feedCmd.Flags().StringVar(&feedApp, "app", "", "use a specific stored app")
	feedCmd.Flags().IntVar(&feedRateLimit, "rate-limit", 0, "requests per minute (default from config)")
	feedCmd.Flags().IntVar(&feedMaxRetries, "max-retries", -1, "maximum attempts per request (default from config)")
	feedCmd.Flags().BoolVar(&feedResume, "resume", false, "resume from the last checkpoint")
	feedCmd.Flags().BoolVar(&feedForceRestart, "force-restart", false, "discard an existing checkpoint and start over")
	feedCmd.Flags().BoolVar(&feedTUI, "tui", false, "show an interactive dashboard while exporting")
	feedCmd.Flags().BoolVar(&feedNotify, "notify", false, "send a desktop notification when the export ends")
	feedCmd.MarkFlagsMutuallyExclusive("resume", "force-restart")
}

func runFeed(cmd *cobra.Command, args []string) error {
	page := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if feedOutput != "" {
		flags["output"] = feedOutput
	}
	if feedSince != "" {
		flags["since"] = feedSince
	}
	if feedUntil != "" {
		flags["until"] = feedUntil
	}
	if feedRateLimit > 0 {
		flags["requests-per-minute"] = feedRateLimit
	}
	if feedMaxRetries >= 0 {
		flags["max-attempts"] = feedMaxRetries
	}
	// Console logs would tear the dashboard
	if feedTUI && logLevel == "" {
		flags["log-level"] = "disabled"
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.ValidateExport(); err != nil {
		return fmt.Errorf("invalid export settings: %w", err)
	}
	window, err := exportWindow(cfg.Export)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.GetLogger().WithField("page", page)
	s, err := scraper.NewFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	if manager, err := newCredentialManager(); err == nil {
		s.SetCredentials(manager)
	} else {
		log.WithError(err).Warn("Credential store unavailable")
	}

	opts := scraper.Options{
		Resume:       feedResume,
		ForceRestart: feedForceRestart,
		AppName:      feedApp,
		OutputDir:    cfg.Export.OutputDirectory,
	}

	var result *scraper.Result
	if feedTUI {
		result, err = exportWithDashboard(ctx, cancel, s, page, window, opts)
	} else {
		ui.PrintInfo("Target Page", page)
		s.SetObserver(ui.NewProgressDisplay(ui.Stdout(), verbose))
		result, err = s.ExportPageFeed(ctx, page, window, opts)
	}

	if feedNotify {
		notifier := ui.NewNotifier()
		if err != nil {
			notifier.NotifyError("Feed export failed", fmt.Sprintf("%s: %v", page, err))
		} else {
			notifier.Notify("Feed export finished", fmt.Sprintf("%d posts from %s", result.Posts, page))
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, scraper.ErrCheckpointExists):
			return fmt.Errorf("%w; use --resume to continue or --force-restart to start over", err)
		case errors.Is(err, context.Canceled):
			ui.PrintWarning("Export interrupted", "run again with --resume to continue")
		}
		return err
	}

	if feedTUI {
		ui.PrintSuccess(fmt.Sprintf("Exported %d posts from %s to %s", result.Posts, page, result.Output))
	}
	return nil
}

// exportWithDashboard runs the export in the background while the dashboard
// owns the terminal. Quitting the dashboard cancels the export.
func exportWithDashboard(ctx context.Context, cancel context.CancelFunc, s *scraper.Scraper, page string, window scraper.Window, opts scraper.Options) (*scraper.Result, error) {
	terminal := tui.NewTUI(cancel)
	s.SetObserver(terminal)

	type outcome struct {
		result *scraper.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		if opts.Resume {
			terminal.Logf(tui.LevelInfo, "Looking for a checkpoint of %s", page)
		}
		result, err := s.ExportPageFeed(ctx, page, window, opts)
		done <- outcome{result: result, err: err}
	}()
	go func() {
		<-ctx.Done()
		terminal.Stop()
	}()

	if err := terminal.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("terminal UI failed: %w", err)
	}

	// The dashboard exits on finish or quit; either way the export stops
	res := <-done
	return res.result, res.err
}

func exportWindow(cfg config.ExportConfig) (scraper.Window, error) {
	since, err := cfg.SinceTime()
	if err != nil {
		return scraper.Window{}, fmt.Errorf("invalid since date: %w", err)
	}
	until, err := cfg.UntilTime()
	if err != nil {
		return scraper.Window{}, fmt.Errorf("invalid until date: %w", err)
	}
	return scraper.Window{Since: since, Until: until}, nil
}
