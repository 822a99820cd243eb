package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"stopsum/pkg/auth"
	"stopsum/pkg/checkpoint"
	"stopsum/pkg/config"
	"stopsum/pkg/graph"
	"stopsum/pkg/logger"
	"stopsum/pkg/metadata"
	"stopsum/pkg/ratelimit"
	"stopsum/pkg/retry"
	"stopsum/pkg/storage"
)

// ErrCheckpointExists is returned when a previous export of the same page
// was interrupted and neither resume nor force restart was requested
var ErrCheckpointExists = errors.New("checkpoint exists for this export")

// ErrCheckpointMismatch is returned when resuming with a different window
// than the interrupted export used
var ErrCheckpointMismatch = errors.New("checkpoint was taken for a different export window")

// Window bounds the export by post creation time. Zero values are open.
type Window struct {
	Since time.Time
	Until time.Time
}

// Options controls one export run
type Options struct {
	Resume       bool
	ForceRestart bool
	// AppName selects stored credentials; empty means the default app
	AppName string
	// OutputDir overrides the configured output directory
	OutputDir string
}

// Result summarizes a finished export
type Result struct {
	RunID     string
	Page      string
	ProfileID string
	Output    string
	Pages     int
	Posts     int
	Skipped   int
	Invalid   int
	Resumed   bool
	Duration  time.Duration
}

// Scraper orchestrates page feed exports
type Scraper struct {
	client        GraphClient
	credentials   CredentialSource
	rateLimiter   ratelimit.Limiter
	config        *config.Config
	logger        logger.Logger
	observer      Observer
	checkpointDir string
}

// New creates a Scraper. A nil limiter disables pacing between pages.
func New(cfg *config.Config, client GraphClient, limiter ratelimit.Limiter, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:      client,
		rateLimiter: limiter,
		config:      cfg,
		logger:      log,
		observer:    nopObserver{},
	}
}

// NewFromConfig wires the Graph client, retry policy and rate limiter
// described by cfg
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	retryCfg := retry.FromConfig(ctx, cfg.Retry, log)
	client := graph.NewClient(graph.OptionsFromConfig(cfg.Graph, retryCfg), log)
	return New(cfg, client, limiter, log), nil
}

// SetCredentials sets the store consulted when the config carries no app
// credentials
func (s *Scraper) SetCredentials(source CredentialSource) {
	s.credentials = source
}

// SetObserver sets the progress observer
func (s *Scraper) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.observer = o
}

// SetCheckpointDir stores checkpoints in dir instead of the user data directory
func (s *Scraper) SetCheckpointDir(dir string) {
	s.checkpointDir = dir
}

// ExportPageFeed writes every post of page within window to
// <output>/<page>.csv
func (s *Scraper) ExportPageFeed(ctx context.Context, page string, window Window, opts Options) (result *Result, err error) {
	started := time.Now()
	defer func() {
		if result != nil {
			result.Duration = time.Since(started)
		}
		s.observer.ExportFinished(result, err)
	}()

	if page == "" {
		return nil, fmt.Errorf("page name is required")
	}
	if !window.Since.IsZero() && !window.Until.IsZero() && !window.Since.Before(window.Until) {
		return nil, fmt.Errorf("since (%s) must be before until (%s)", window.Since.Format(config.DateLayout), window.Until.Format(config.DateLayout))
	}

	checkpointMgr, err := s.checkpointManager(page)
	if err != nil {
		s.logger.WithError(err).WithField("page", page).Error("Failed to create checkpoint manager")
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	cp, err := s.prepareCheckpoint(checkpointMgr, page, window, opts)
	if err != nil {
		return nil, err
	}
	resumed := cp != nil

	if err := s.authenticate(ctx, opts.AppName); err != nil {
		return nil, err
	}

	profileID := ""
	if cp != nil {
		profileID = cp.ProfileID
	}
	if profileID == "" {
		obj, err := s.client.GetObject(ctx, page)
		if err != nil {
			s.logger.WithError(err).WithField("page", page).Error("Failed to resolve page")
			return nil, fmt.Errorf("failed to resolve page %s: %w", page, err)
		}
		profileID = obj.ID
		s.logger.InfoWithFields("Resolved page", map[string]interface{}{
			"page":       page,
			"profile_id": profileID,
			"name":       obj.Name,
		})
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = s.config.Export.OutputDirectory
	}
	sink, err := storage.NewCSVSink(outputDir, OutputName(page), resumed)
	if err != nil {
		s.logger.WithError(err).WithField("output_dir", outputDir).Error("Failed to open output")
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if cp == nil {
		created, cpErr := checkpointMgr.Create(page, profileID, window.Since, window.Until)
		if cpErr != nil {
			s.logger.WithError(cpErr).Warn("Failed to create checkpoint, continuing without one")
			created = &checkpoint.Checkpoint{Page: page, ProfileID: profileID, Since: window.Since, Until: window.Until}
		}
		cp = created
	}

	s.logger.InfoWithFields("Starting feed export", map[string]interface{}{
		"page":    page,
		"run_id":  cp.RunID,
		"output":  sink.Path(),
		"since":   formatDate(window.Since),
		"until":   formatDate(window.Until),
		"resumed": resumed,
	})
	s.observer.ExportStarted(page, window, resumed)

	result = &Result{
		RunID:     cp.RunID,
		Page:      page,
		ProfileID: profileID,
		Output:    sink.Path(),
		Resumed:   resumed,
	}

	var current *graph.Page
	if cp.NextURL != "" {
		if err := s.waitForRateLimit(ctx); err != nil {
			return result, err
		}
		current, err = s.client.NextPage(ctx, cp.NextURL)
	} else {
		current, err = s.client.Posts(ctx, graph.PostsQuery{
			ProfileID: profileID,
			Since:     window.Since,
			Until:     window.Until,
			Limit:     s.config.Graph.PageSize,
			Fields:    s.config.Graph.Fields,
		})
	}

	progress := Progress{Page: page, Pages: cp.PagesProcessed, Window: window}
	every := s.config.Export.ProgressEvery

	for {
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"page":  page,
				"pages": progress.Pages,
			}).Error("Error fetching posts")
			return result, fmt.Errorf("failed to fetch posts: %w", err)
		}

		for _, raw := range current.Data {
			post, convErr := metadata.FromGraphPost(raw)
			if convErr != nil {
				result.Invalid++
				s.logger.WithError(convErr).WithField("post_id", raw.ID).Warn("Skipping malformed post")
				continue
			}
			if err := sink.Write(post); err != nil {
				return result, err
			}
			if progress.Oldest.IsZero() || post.CreatedAt.Before(progress.Oldest) {
				progress.Oldest = post.CreatedAt
			}
			if every > 0 && sink.Rows()%every == 0 {
				logger.LogExportProgress(s.logger, page, progress.Pages+1, sink.Rows())
			}
		}

		next := current.NextURL()
		if len(current.Data) == 0 {
			next = ""
		}

		if err := sink.Flush(); err != nil {
			return result, err
		}
		if err := checkpointMgr.UpdateProgress(cp, graph.StripAccessToken(next), sink.Rows()); err != nil {
			s.logger.WithError(err).Warn("Failed to save checkpoint")
		}

		progress.Pages = cp.PagesProcessed
		progress.Posts = sink.Rows()
		result.Pages = progress.Pages
		result.Posts = progress.Posts
		result.Skipped = sink.Skipped()
		s.observer.PageExported(progress)

		if next == "" {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.waitForRateLimit(ctx); err != nil {
			return result, err
		}
		current, err = s.client.NextPage(ctx, next)
	}

	if err := checkpointMgr.Delete(); err != nil {
		s.logger.WithError(err).Warn("Failed to delete checkpoint after export")
	}

	s.logger.InfoWithFields("Feed export completed", map[string]interface{}{
		"page":    page,
		"run_id":  result.RunID,
		"pages":   result.Pages,
		"posts":   result.Posts,
		"skipped": result.Skipped,
		"invalid": result.Invalid,
		"output":  result.Output,
	})
	return result, nil
}

// prepareCheckpoint applies the resume and force restart options to an
// existing checkpoint. It returns the checkpoint to continue from, or nil
// for a fresh run.
func (s *Scraper) prepareCheckpoint(mgr *checkpoint.Manager, page string, window Window, opts Options) (*checkpoint.Checkpoint, error) {
	existing, err := mgr.Load()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load checkpoint")
		if !opts.ForceRestart {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
	}

	switch {
	case opts.ForceRestart:
		if mgr.Exists() {
			if err := mgr.Backup(); err != nil {
				s.logger.WithError(err).Warn("Failed to back up checkpoint")
			}
			if err := mgr.Delete(); err != nil {
				return nil, err
			}
			s.logger.WithField("page", page).Info("Force restart, discarded existing checkpoint")
		}
		return nil, nil

	case existing == nil:
		return nil, nil

	case opts.Resume:
		if !existing.Matches(page, window.Since, window.Until) {
			return nil, fmt.Errorf("%w: stored %s..%s", ErrCheckpointMismatch, formatDate(existing.Since), formatDate(existing.Until))
		}
		s.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
			"page":            page,
			"run_id":          existing.RunID,
			"pages_processed": existing.PagesProcessed,
			"posts_exported":  existing.PostsExported,
		})
		return existing, nil

	default:
		return nil, fmt.Errorf("%w (%d posts exported)", ErrCheckpointExists, existing.PostsExported)
	}
}

// authenticate exchanges app credentials for an app access token
func (s *Scraper) authenticate(ctx context.Context, appName string) error {
	app, err := s.resolveApp(appName)
	if err != nil {
		return err
	}

	token, err := s.client.AppAccessToken(ctx, app.AppID, app.AppSecret)
	if err != nil {
		s.logger.WithError(err).WithField("app", app.Name).Error("Failed to get app access token")
		return fmt.Errorf("failed to get app access token: %w", err)
	}
	s.client.SetAccessToken(token)
	s.logger.DebugWithFields("Obtained app access token", map[string]interface{}{
		"app": app.Name,
	})
	return nil
}

// resolveApp prefers credentials from the config, then the named or default
// stored app
func (s *Scraper) resolveApp(name string) (*auth.App, error) {
	if name == "" && s.config.Graph.AppID != "" && s.config.Graph.AppSecret != "" {
		return &auth.App{
			Name:      "config",
			AppID:     s.config.Graph.AppID,
			AppSecret: s.config.Graph.AppSecret,
		}, nil
	}
	if s.credentials == nil {
		return nil, fmt.Errorf("no app credentials configured: %w", auth.ErrCredentialsNotFound)
	}

	var app *auth.App
	var err error
	if name != "" {
		app, err = s.credentials.Retrieve(name)
	} else {
		app, err = s.credentials.RetrieveDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load app credentials: %w", err)
	}
	return app, nil
}

func (s *Scraper) waitForRateLimit(ctx context.Context) error {
	if s.rateLimiter == nil || s.rateLimiter.Allow() {
		return nil
	}

	started := time.Now()
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	waited := time.Since(started)
	logger.LogRateLimit(s.logger, "posts", waited)
	s.observer.RateLimited(waited)
	return nil
}

func (s *Scraper) checkpointManager(page string) (*checkpoint.Manager, error) {
	if s.checkpointDir != "" {
		return checkpoint.NewManagerInDir(s.checkpointDir, page, s.logger)
	}
	return checkpoint.NewManager(page)
}

// OutputName returns the CSV base name for a page
func OutputName(page string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator {
			return '_'
		}
		return r
	}, strings.TrimSpace(page))
	if name == "" || name == "." || name == ".." {
		return "page"
	}
	return name
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(config.DateLayout)
}
