package scraper

import (
	"context"
	"time"

	"stopsum/pkg/auth"
	"stopsum/pkg/graph"
)

// GraphClient defines the Graph API operations the exporter needs
type GraphClient interface {
	AppAccessToken(ctx context.Context, appID, appSecret string) (string, error)
	SetAccessToken(token string)
	GetObject(ctx context.Context, id string) (*graph.Object, error)
	Posts(ctx context.Context, q graph.PostsQuery) (*graph.Page, error)
	NextPage(ctx context.Context, next string) (*graph.Page, error)
}

// CredentialSource resolves stored app credentials
type CredentialSource interface {
	Retrieve(name string) (*auth.App, error)
	RetrieveDefault() (*auth.App, error)
}

// Observer receives export progress. Implementations must not block.
type Observer interface {
	ExportStarted(page string, window Window, resumed bool)
	PageExported(p Progress)
	RateLimited(wait time.Duration)
	ExportFinished(result *Result, err error)
}

// Progress describes the export after a finished page
type Progress struct {
	Page   string
	Pages  int
	Posts  int
	Oldest time.Time
	Window Window
}

// Covered returns the fraction of the window already exported. Posts arrive
// newest first, so coverage grows as Oldest moves towards Since.
func (p Progress) Covered() float64 {
	if p.Oldest.IsZero() || p.Window.Since.IsZero() || p.Window.Until.IsZero() {
		return 0
	}
	span := p.Window.Until.Sub(p.Window.Since)
	if span <= 0 {
		return 0
	}
	done := p.Window.Until.Sub(p.Oldest)
	switch {
	case done <= 0:
		return 0
	case done >= span:
		return 1
	}
	return float64(done) / float64(span)
}

type nopObserver struct{}

func (nopObserver) ExportStarted(string, Window, bool) {}
func (nopObserver) PageExported(Progress) {}
func (nopObserver) RateLimited(time.Duration) {}
func (nopObserver) ExportFinished(*Result, error) {}
