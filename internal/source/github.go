package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"

	"github.com/valksor/go-selfup/internal/httpclient"
	"github.com/valksor/go-selfup/internal/log"
)

const githubPerPage = 100

// GitHub lists releases through the GitHub REST API.
type GitHub struct {
	gh      *github.Client
	http    *http.Client
	retry   httpclient.RetryPolicy
	timeout time.Duration
}

// NewGitHub creates a GitHub source. Without a token requests are
// unauthenticated and subject to the anonymous rate limit.
func NewGitHub(opts Options) (*GitHub, error) {
	base := opts.httpClient()

	// go-github swaps CheckRedirect on its client during asset downloads,
	// so the API client must not be the one used to follow redirects.
	api := *base
	apiClient := &api
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, apiClient)
		apiClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}

	gh := github.NewClient(apiClient)
	if opts.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}

	return &GitHub{
		gh:      gh,
		http:    base,
		retry:   opts.Retry,
		timeout: opts.Timeout,
	}, nil
}

// ListReleases fetches every page of releases for repo.
func (g *GitHub) ListReleases(ctx context.Context, repo RepoRef) ([]Release, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	opts := &github.ListOptions{PerPage: githubPerPage}

	var all []Release
	for {
		var (
			page []*github.RepositoryRelease
			resp *github.Response
		)
		err := httpclient.WithRetry(ctx, g.retry, func() error {
			var err error
			page, resp, err = g.gh.Repositories.ListReleases(ctx, repo.Owner, repo.Name, opts)
			return githubAPIError(err)
		})
		if err != nil {
			return nil, listError(repo, err)
		}

		for _, r := range page {
			all = append(all, releaseFromGitHub(repo, r))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("listed releases", log.Repo(repo.Owner, repo.Name), "count", len(all))

	return keepDraftsOut(all), nil
}

// FetchAsset downloads through the release asset API when the asset ID is
// known, which also works for private repositories, and falls back to the
// browser download URL.
func (g *GitHub) FetchAsset(ctx context.Context, asset AssetRef) (io.ReadCloser, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)

	var (
		body io.ReadCloser
		err  error
	)
	if asset.ID != 0 && asset.Repo.Owner != "" {
		err = httpclient.WithRetry(ctx, g.retry, func() error {
			rc, _, err := g.gh.Repositories.DownloadReleaseAsset(ctx, asset.Repo.Owner, asset.Repo.Name, asset.ID, g.http)
			if err != nil {
				return githubAPIError(err)
			}
			body = rc
			return nil
		})
	} else {
		body, err = fetchURL(ctx, g.http, g.retry, asset.URL, nil)
	}
	if err != nil {
		cancel()
		return nil, assetError(asset, err)
	}

	return &timedBody{ReadCloser: body, cancel: cancel}, nil
}

// githubAPIError maps go-github failures onto *httpclient.HTTPError so the
// retry policy and the not-found check can classify them.
func githubAPIError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return httpclient.NewHTTPError(http.StatusTooManyRequests, rateErr.Message)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return httpclient.NewHTTPError(http.StatusTooManyRequests, abuseErr.Message)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return httpclient.NewHTTPError(ghErr.Response.StatusCode, ghErr.Message)
	}

	return err
}

func releaseFromGitHub(repo RepoRef, r *github.RepositoryRelease) Release {
	assets := make([]AssetRef, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, AssetRef{
			Name: a.GetName(),
			URL:  a.GetBrowserDownloadURL(),
			ID:   a.GetID(),
			Size: int64(a.GetSize()),
			Repo: repo,
		})
	}

	var published time.Time
	if r.PublishedAt != nil {
		published = r.PublishedAt.Time
	}

	return Release{
		Tag:         r.GetTagName(),
		Name:        r.GetName(),
		Assets:      assets,
		Prerelease:  r.GetPrerelease(),
		Draft:       r.GetDraft(),
		PublishedAt: published,
	}
}
