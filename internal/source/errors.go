package source

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSourceUnavailable is returned when listing fails on the network or times out.
	ErrSourceUnavailable = errors.New("release source unavailable")
	// ErrSourceNotFound is returned when the repository does not exist.
	ErrSourceNotFound = errors.New("repository not found")
	// ErrAssetUnavailable is returned when an asset cannot be fetched.
	ErrAssetUnavailable = errors.New("asset unavailable")
	// ErrUnknownKind is returned by New for an unsupported host kind.
	ErrUnknownKind = errors.New("unknown source kind")
)

// listError classifies a failed listing. Only an HTTP 404 means the
// repository is missing; everything else is treated as the host being
// unreachable.
func listError(repo RepoRef, err error) error {
	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, repo)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, repo, err)
}

func assetError(asset AssetRef, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAssetUnavailable, asset.Name, err)
}
