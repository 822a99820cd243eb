// Package retry provides backoff and retry logic for transient failures in
// Graph API calls.
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		return client.Ping(ctx)
//	}, nil)
//
// Feed exports build their policy from the application config, which gives
// throttling errors a slower schedule than network or server errors:
//
//	cfg := retry.FromConfig(ctx, appConfig.Retry, logger.GetLogger())
//	page, err := retry.DoWithResult(func() (*graph.PostsPage, error) {
//		return client.NextPage(ctx, next)
//	}, cfg)
//
// Errors of type auth, not_found and invalid_request are never retried, nor
// are context cancellations.
package retry
