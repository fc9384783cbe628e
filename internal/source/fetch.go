package source

import (
	"context"
	"io"
	"net/http"

	"github.com/valksor/go-selfup/internal/httpclient"
)

// timedBody releases the call's context when the body is closed, so the
// timeout covers the full read.
type timedBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *timedBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// fetchURL performs a GET with retry and returns the open body.
// header may be nil.
func fetchURL(ctx context.Context, client *http.Client, policy httpclient.RetryPolicy, url string, header http.Header) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := httpclient.WithRetry(ctx, policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		for k, v := range header {
			req.Header[k] = v
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		if err := httpclient.CheckStatus(resp); err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
