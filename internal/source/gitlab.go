package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/valksor/go-selfup/internal/httpclient"
	"github.com/valksor/go-selfup/internal/log"
)

// GitLab lists releases through the GitLab REST API. Asset links are
// fetched over plain HTTP.
type GitLab struct {
	gl      *gitlab.Client
	http    *http.Client
	token   string
	host    string
	retry   httpclient.RetryPolicy
	timeout time.Duration
}

// NewGitLab creates a GitLab source for gitlab.com or a self-hosted instance.
func NewGitLab(opts Options) (*GitLab, error) {
	client := opts.httpClient()

	options := []gitlab.ClientOptionFunc{
		gitlab.WithHTTPClient(client),
		// Retries follow our own policy.
		gitlab.WithCustomRetryMax(0),
	}

	host := "gitlab.com"
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("gitlab base url: %w", err)
		}
		host = u.Host
		options = append(options, gitlab.WithBaseURL(opts.BaseURL))
	}

	gl, err := gitlab.NewClient(opts.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}

	return &GitLab{
		gl:      gl,
		http:    client,
		token:   opts.Token,
		host:    host,
		retry:   opts.Retry,
		timeout: opts.Timeout,
	}, nil
}

// ListReleases fetches every page of releases for the project owner/name.
func (g *GitLab) ListReleases(ctx context.Context, repo RepoRef) ([]Release, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	opts := &gitlab.ListReleasesOptions{}
	opts.Page = 1
	opts.PerPage = 100

	var all []Release
	for {
		var (
			page []*gitlab.Release
			resp *gitlab.Response
		)
		err := httpclient.WithRetry(ctx, g.retry, func() error {
			var err error
			page, resp, err = g.gl.Releases.ListReleases(repo.String(), opts, gitlab.WithContext(ctx))
			return gitlabAPIError(err)
		})
		if err != nil {
			return nil, listError(repo, err)
		}

		for _, r := range page {
			all = append(all, releaseFromGitLab(repo, r))
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("listed releases", log.Repo(repo.Owner, repo.Name), "count", len(all))

	return keepDraftsOut(all), nil
}

// FetchAsset downloads an asset link. The private token is sent only to the
// GitLab host itself.
func (g *GitLab) FetchAsset(ctx context.Context, asset AssetRef) (io.ReadCloser, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)

	var header http.Header
	if g.token != "" {
		if u, err := url.Parse(asset.URL); err == nil && u.Host == g.host {
			header = http.Header{"Private-Token": []string{g.token}}
		}
	}

	body, err := fetchURL(ctx, g.http, g.retry, asset.URL, header)
	if err != nil {
		cancel()
		return nil, assetError(asset, err)
	}

	return &timedBody{ReadCloser: body, cancel: cancel}, nil
}

func gitlabAPIError(err error) error {
	if err == nil {
		return nil
	}

	// The client reports 404 with a bare sentinel instead of an ErrorResponse.
	if errors.Is(err, gitlab.ErrNotFound) {
		return httpclient.NewHTTPError(http.StatusNotFound, err.Error())
	}

	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) && glErr.Response != nil {
		return httpclient.NewHTTPError(glErr.Response.StatusCode, glErr.Message)
	}

	return err
}

func releaseFromGitLab(repo RepoRef, r *gitlab.Release) Release {
	links := r.Assets.Links
	assets := make([]AssetRef, 0, len(links))
	for _, l := range links {
		u := l.DirectAssetURL
		if u == "" {
			u = l.URL
		}
		assets = append(assets, AssetRef{
			Name: l.Name,
			URL:  u,
			Repo: repo,
		})
	}

	var published time.Time
	if r.ReleasedAt != nil {
		published = *r.ReleasedAt
	}

	return Release{
		Tag:         r.TagName,
		Name:        r.Name,
		Assets:      assets,
		PublishedAt: published,
	}
}
