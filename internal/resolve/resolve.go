// Package resolve picks the release and asset to install from a listing.
package resolve

import (
	"fmt"

	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/version"
)

// AnomalyKind classifies something odd noticed while resolving.
type AnomalyKind int

const (
	// DuplicateVersion means two tags parsed to the same version.
	DuplicateVersion AnomalyKind = iota + 1
)

func (k AnomalyKind) String() string {
	switch k {
	case DuplicateVersion:
		return "duplicate-version"
	default:
		return "unknown"
	}
}

// Anomaly records a tie broken by listing order.
type Anomaly struct {
	Kind    AnomalyKind
	Version version.Version
	Kept    string
	Dropped string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s %s: kept %q, dropped %q", a.Kind, a.Version, a.Kept, a.Dropped)
}

// Resolved is the release chosen for installation.
type Resolved struct {
	Version version.Version
	Tag     string
	Asset   source.AssetRef
	// Siblings are all assets of the chosen release, used to locate digests.
	Siblings  []source.AssetRef
	Anomalies []Anomaly
}

// Resolve returns the highest version satisfying c that has an asset for
// sel. Ties keep the candidate listed first and are reported as anomalies.
func Resolve(candidates []Candidate, c version.Constraint, sel Selector) (*Resolved, error) {
	var (
		satisfying int
		best       *Candidate
		bestAsset  source.AssetRef
		anomalies  []Anomaly
	)

	for i := range candidates {
		cand := &candidates[i]
		if !version.Satisfies(cand.Version, c) {
			continue
		}
		satisfying++

		asset, ok := sel.Pick(cand.Assets, cand.Version)
		if !ok {
			log.Debug("no platform asset", "tag", cand.Tag, "platform", sel.Platform.String())
			continue
		}

		if best == nil {
			best, bestAsset = cand, asset
			continue
		}

		switch cmp := version.Compare(cand.Version, best.Version); {
		case cmp > 0:
			best, bestAsset = cand, asset
			anomalies = nil
		case cmp == 0:
			anomalies = append(anomalies, Anomaly{
				Kind:    DuplicateVersion,
				Version: best.Version,
				Kept:    best.Tag,
				Dropped: cand.Tag,
			})
		}
	}

	if satisfying == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingRelease, c)
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s (%d releases satisfy %s)", ErrNoMatchingAsset, sel.Platform, satisfying, c)
	}

	for _, a := range anomalies {
		log.Warn("duplicate release version", "version", a.Version.String(), "kept", a.Kept, "dropped", a.Dropped)
	}

	return &Resolved{
		Version:   best.Version,
		Tag:       best.Tag,
		Asset:     bestAsset,
		Siblings:  best.Assets,
		Anomalies: anomalies,
	}, nil
}
