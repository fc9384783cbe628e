// Package update resolves, downloads, verifies and installs new releases
// of a binary.
package update

import (
	"context"
	"fmt"
	"sync"

	"github.com/valksor/go-selfup/internal/cache"
	"github.com/valksor/go-selfup/internal/config"
	"github.com/valksor/go-selfup/internal/lock"
	"github.com/valksor/go-selfup/internal/log"
	"github.com/valksor/go-selfup/internal/resolve"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/swap"
	"github.com/valksor/go-selfup/internal/verify"
	"github.com/valksor/go-selfup/internal/version"
)

// Options configures an Updater. Zero values pick the defaults.
type Options struct {
	// Source overrides the release source built from the config.
	Source source.Source
	// Platform overrides the running platform.
	Platform resolve.Platform
	// Target is the binary to replace, the running executable by default.
	Target string
	// Strategy overrides swap.DetectStrategy.
	Strategy swap.Strategy
	// Progress, when set, is called once per download to report bytes.
	Progress func(asset source.AssetRef) Progress
}

// Updater runs update checks for one binary.
type Updater struct {
	opts    Options
	swapper *swap.Swapper

	mu      sync.Mutex
	sources map[string]source.Source
}

// New creates an Updater.
func New(opts Options) *Updater {
	if opts.Platform == (resolve.Platform{}) {
		opts.Platform = resolve.Current()
	}
	return &Updater{
		opts:    opts,
		swapper: swap.New(opts.Strategy),
		sources: make(map[string]source.Source),
	}
}

// source returns the release source for cfg, reusing one built earlier
// for the same host so its listing cache is shared.
func (u *Updater) source(cfg *config.Config) (source.Source, error) {
	if u.opts.Source != nil {
		return u.opts.Source, nil
	}

	key := cfg.Source.Kind + " " + cfg.Source.BaseURL
	u.mu.Lock()
	defer u.mu.Unlock()

	if src, ok := u.sources[key]; ok {
		return src, nil
	}
	src, err := source.New(cfg.Source.Kind, cfg.SourceOptions())
	if err != nil {
		return nil, err
	}
	cached := source.WithCache(src, cache.DefaultListingTTL)
	u.sources[key] = cached
	return cached, nil
}

// Target returns the binary the updater replaces.
func (u *Updater) Target() (string, error) {
	if u.opts.Target != "" {
		return u.opts.Target, nil
	}
	return ExecutablePath()
}

func (u *Updater) selector(cfg *config.Config) resolve.Selector {
	return resolve.Selector{
		Platform: u.opts.Platform,
		Template: cfg.Asset.Template,
		Name:     cfg.Asset.Binary,
	}
}

// ListReleases returns the candidate releases of the configured repository,
// newest first.
func (u *Updater) ListReleases(ctx context.Context, cfg *config.Config) ([]resolve.Candidate, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	src, err := u.source(cfg)
	if err != nil {
		return nil, fail(PhaseConfig, err)
	}

	releases, err := src.ListReleases(ctx, cfg.RepoRef())
	if err != nil {
		return nil, fail(PhaseList, err)
	}

	candidates := resolve.Candidates(releases, cfg.Prefix)
	resolve.SortNewestFirst(candidates)
	return candidates, nil
}

func validate(cfg *config.Config) error {
	if cfg == nil {
		return fail(PhaseConfig, fmt.Errorf("%w: no configuration", config.ErrInvalidConfig))
	}
	return fail(PhaseConfig, cfg.Validate())
}

// MatchesPlatform reports whether an asset name is the build the updater
// would install for v.
func (u *Updater) MatchesPlatform(cfg *config.Config, name string, v version.Version) bool {
	return !resolve.IsSidecar(name) && u.selector(cfg).Matches(name, v)
}

// Check lists and resolves without touching the filesystem.
func (u *Updater) Check(ctx context.Context, cfg *config.Config, current version.Version) (*Status, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	src, err := u.source(cfg)
	if err != nil {
		return nil, fail(PhaseConfig, err)
	}

	repo := cfg.RepoRef()
	logger := log.With(log.Repo(repo.Owner, repo.Name))

	logger.DebugContext(ctx, "listing releases", log.Phase(string(PhaseList)))
	releases, err := src.ListReleases(ctx, repo)
	if err != nil {
		return nil, fail(PhaseList, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(PhaseResolve, err)
	}

	resolved, err := resolve.Resolve(resolve.Candidates(releases, cfg.Prefix), cfg.Constraint(), u.selector(cfg))
	if err != nil {
		return nil, fail(PhaseResolve, err)
	}
	logger.DebugContext(ctx, "resolved release", log.Phase(string(PhaseResolve)),
		"tag", resolved.Tag, "asset", resolved.Asset.Name, "constraint", cfg.Constraint().String())

	return &Status{
		Current:         current,
		Release:         resolved,
		UpdateAvailable: needsInstall(current, resolved.Version, cfg.Constraint()),
	}, nil
}

// needsInstall applies the up-to-date rule: an exact pin installs whenever
// it differs from current, even when that is a downgrade; otherwise only a
// newer version is installed.
func needsInstall(current, resolved version.Version, c version.Constraint) bool {
	if c.Kind() == version.KindExact {
		return !resolved.Equal(current)
	}
	return resolved.GreaterThan(current)
}

// CheckAndUpdate installs the release selected by cfg unless current is
// already up to date. Any failure leaves the installed binary untouched.
func (u *Updater) CheckAndUpdate(ctx context.Context, cfg *config.Config, current version.Version) (*Outcome, error) {
	status, err := u.Check(ctx, cfg, current)
	if err != nil {
		return nil, err
	}

	resolved := status.Release
	outcome := &Outcome{From: current, To: resolved.Version, Release: resolved}

	if !status.UpdateAvailable {
		outcome.Kind = AlreadyUpToDate
		outcome.To = current
		log.InfoContext(ctx, "already up to date", "current", current.String(), "resolved", resolved.Version.String())
		return outcome, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(PhaseLock, err)
	}

	target, err := u.Target()
	if err != nil {
		return nil, fail(PhaseInstall, err)
	}
	outcome.Target = target

	digest, err := u.apply(ctx, cfg, resolved, target)
	if err != nil {
		return nil, err
	}

	outcome.Kind = Updated
	outcome.Digest = digest
	log.InfoContext(ctx, "updated", "from", current.String(), "to", resolved.Version.String(), "target", target)
	return outcome, nil
}

// apply runs download, verify, extract and swap under the target's lock.
func (u *Updater) apply(ctx context.Context, cfg *config.Config, resolved *resolve.Resolved, target string) (verify.Digest, error) {
	fl := lock.For(target)
	if err := fl.Acquire(ctx, cfg.Update.LockTimeout.Std()); err != nil {
		return verify.Digest{}, fail(PhaseLock, err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Warn("release update lock", log.Err(err))
		}
	}()

	if err := swap.Recover(target); err != nil {
		log.Warn("recover from previous update", "target", target, log.Err(err))
	}

	src, err := u.source(cfg)
	if err != nil {
		return verify.Digest{}, fail(PhaseConfig, err)
	}

	if err := ctx.Err(); err != nil {
		return verify.Digest{}, fail(PhaseDownload, err)
	}
	var progress Progress
	if u.opts.Progress != nil {
		progress = u.opts.Progress(resolved.Asset)
	}
	plan, err := download(ctx, src, resolved.Asset, target, progress)
	if err != nil {
		return verify.Digest{}, fail(PhaseDownload, err)
	}
	defer plan.Discard()

	if err := ctx.Err(); err != nil {
		return verify.Digest{}, fail(PhaseVerify, err)
	}
	locator := &verify.Locator{
		Fetcher:     src,
		Manifests:   cfg.Verify.Checksums,
		TrustedKeys: cfg.TrustedKeys(),
	}
	expected, locateErr := locator.Locate(ctx, resolved.Asset, resolved.Siblings)
	if err := checkDigest(plan, expected, locateErr, cfg.Verify.AllowUnverified); err != nil {
		return verify.Digest{}, fail(PhaseVerify, err)
	}

	if err := ctx.Err(); err != nil {
		return verify.Digest{}, fail(PhaseExtract, err)
	}
	if err := install(ctx, u.swapper, plan, cfg.Asset.Binary); err != nil {
		return verify.Digest{}, err
	}

	return plan.Digest, nil
}

// SwapState returns the state the last install reached.
func (u *Updater) SwapState() swap.State {
	return u.swapper.State()
}

func (o *Outcome) String() string {
	if o.Kind == AlreadyUpToDate {
		return fmt.Sprintf("already up to date (%s)", o.From)
	}
	return fmt.Sprintf("updated %s -> %s", o.From, o.To)
}
