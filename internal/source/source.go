// Package source talks to release hosts. It lists the releases of a
// repository and streams release assets, normalizing host API data into
// Release and AssetRef at the package boundary.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valksor/go-selfup/internal/httpclient"
)

// Kinds of release hosts.
const (
	KindGitHub = "github"
	KindGitLab = "gitlab"
)

// RepoRef identifies a repository on a release host.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// AssetRef describes one downloadable file attached to a release.
type AssetRef struct {
	Name string
	URL  string
	// ID is the host's asset identifier, zero when the host has none.
	ID   int64
	Size int64
	Repo RepoRef
}

// Release is a published release as seen by the resolver.
type Release struct {
	Tag         string
	Name        string
	Assets      []AssetRef
	Prerelease  bool
	Draft       bool
	PublishedAt time.Time
}

// Source lists releases and fetches assets from one release host.
type Source interface {
	// ListReleases returns every non-draft release of repo in host order.
	// A repository with no releases yields an empty slice and no error.
	ListReleases(ctx context.Context, repo RepoRef) ([]Release, error)
	// FetchAsset opens the asset body. The caller closes it.
	FetchAsset(ctx context.Context, asset AssetRef) (io.ReadCloser, error)
}

// Options configures a Source.
type Options struct {
	// BaseURL points at a GitHub Enterprise or self-hosted GitLab instance.
	BaseURL string
	Token   string
	// HTTPClient defaults to httpclient.New with no rate limit.
	HTTPClient *http.Client
	Retry      httpclient.RetryPolicy
	// Timeout bounds each ListReleases and FetchAsset call, body read included.
	Timeout time.Duration
}

// New builds the Source for kind.
func New(kind string, opts Options) (Source, error) {
	switch strings.ToLower(kind) {
	case "", KindGitHub:
		return NewGitHub(opts)
	case KindGitLab:
		return NewGitLab(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return httpclient.New(httpclient.Options{})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func keepDraftsOut(releases []Release) []Release {
	out := releases[:0]
	for _, r := range releases {
		if r.Draft {
			continue
		}
		out = append(out, r)
	}
	return out
}
