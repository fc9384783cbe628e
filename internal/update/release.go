package update

import (
	"os"

	"github.com/valksor/go-selfup/internal/resolve"
	"github.com/valksor/go-selfup/internal/verify"
	"github.com/valksor/go-selfup/internal/version"
)

// OutcomeKind tells what CheckAndUpdate did.
type OutcomeKind int

const (
	AlreadyUpToDate OutcomeKind = iota
	Updated
)

func (k OutcomeKind) String() string {
	switch k {
	case AlreadyUpToDate:
		return "already-up-to-date"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Outcome is the result of a successful CheckAndUpdate.
type Outcome struct {
	Kind    OutcomeKind
	From    version.Version
	To      version.Version
	Release *resolve.Resolved
	// Digest is what the installed asset was checked against; zero when
	// the install was allowed without a published digest.
	Digest verify.Digest
	Target string
}

// Status is the result of a dry-run check.
type Status struct {
	Current version.Version
	Release *resolve.Resolved
	// UpdateAvailable is true when CheckAndUpdate would install Release.
	UpdateAvailable bool
}

// InstallPlan tracks a downloaded asset on its way to the target. It
// owns TempPath until Discard is called.
type InstallPlan struct {
	TempPath   string
	TargetPath string
	AssetName  string
	Digest     verify.Digest

	sha256 verify.Digest
	sha512 verify.Digest
}

// actual returns the digest of the download computed with alg.
func (p *InstallPlan) actual(alg verify.Algorithm) verify.Digest {
	if alg == verify.SHA512 {
		return p.sha512
	}
	return p.sha256
}

// Discard removes the downloaded file.
func (p *InstallPlan) Discard() {
	if p.TempPath != "" {
		_ = os.Remove(p.TempPath)
	}
}
