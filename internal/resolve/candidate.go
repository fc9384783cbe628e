package resolve

import (
	"slices"
	"time"

	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/version"
)

// Candidate is a release whose tag parsed as a version.
type Candidate struct {
	Tag         string
	Name        string
	Version     version.Version
	Assets      []source.AssetRef
	Prerelease  bool
	PublishedAt time.Time
}

// Candidates keeps the releases whose tag is prefix followed by a strict
// semantic version, in listing order.
func Candidates(releases []source.Release, prefix string) []Candidate {
	out := make([]Candidate, 0, len(releases))
	for _, r := range releases {
		v, ok := version.ParseTag(r.Tag, prefix)
		if !ok {
			log.Debug("skipping tag", "tag", r.Tag, "prefix", prefix)
			continue
		}
		out = append(out, Candidate{
			Tag:         r.Tag,
			Name:        r.Name,
			Version:     v,
			Assets:      r.Assets,
			Prerelease:  r.Prerelease,
			PublishedAt: r.PublishedAt,
		})
	}
	return out
}

// SortNewestFirst orders candidates by descending version. Equal versions
// keep their listing order.
func SortNewestFirst(candidates []Candidate) {
	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return version.Compare(b.Version, a.Version)
	})
}
