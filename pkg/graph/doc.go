// Package graph is a small client for the social-graph REST API used by the
// feed exporter.
//
// It covers the four calls an export needs: exchanging app credentials for
// an app token, resolving a page by name, fetching the first page of its
// posts connection, and following paging.next links.
//
//	client := graph.NewClient(graph.OptionsFromConfig(cfg.Graph, retryCfg), log)
//	if _, err := client.AppAccessToken(ctx, appID, appSecret); err != nil {
//	    return err
//	}
//	page, err := client.GetObject(ctx, "nytimes")
//	posts, err := client.Posts(ctx, graph.PostsQuery{ProfileID: page.ID, Since: since, Until: until})
//	for posts.NextURL() != "" {
//	    posts, err = client.NextPage(ctx, posts.NextURL())
//	}
//
// Non-200 responses become *errors.Error values. The Graph error code
// refines the HTTP status, so throttling reported as HTTP 400 is still
// typed as rate_limit and retried.
package graph
