// Package scraper exports the post feed of a public page to CSV.
//
// A Scraper authenticates with app credentials, resolves the page to its
// profile id and walks the posts connection one page at a time, following
// paging.next until the feed is exhausted. Each post becomes one row of
// <output>/<page>.csv.
//
// Usage:
//
//	s, err := scraper.NewFromConfig(ctx, cfg, logger.GetLogger())
//	if err != nil {
//		return err
//	}
//	s.SetCredentials(authManager)
//
//	result, err := s.ExportPageFeed(ctx, "bbcnews", scraper.Window{
//		Since: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
//		Until: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
//	}, scraper.Options{})
//
// Rate Limiting:
//
// Follow-up pages wait on the configured limiter. Transient API failures
// are retried by the Graph client.
//
// Checkpoints:
//
// Progress is saved after every page. An interrupted export must be
// continued with Options.Resume or discarded with Options.ForceRestart.
// Resumed runs append to the existing CSV and skip rows already written.
package scraper
