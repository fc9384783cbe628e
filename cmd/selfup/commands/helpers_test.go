package commands

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valksor/go-selfup/internal/display"
	"github.com/valksor/go-selfup/internal/resolve"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/swap"
	"github.com/valksor/go-selfup/internal/update"
)

// memorySource serves a fixed set of releases.
type memorySource struct {
	releases []source.Release
	bodies   map[string][]byte
}

func (m *memorySource) ListReleases(context.Context, source.RepoRef) ([]source.Release, error) {
	return m.releases, nil
}

func (m *memorySource) FetchAsset(_ context.Context, asset source.AssetRef) (io.ReadCloser, error) {
	body, ok := m.bodies[asset.URL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrAssetUnavailable, asset.Name)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *memorySource) publish(tag string, prerelease bool) {
	if m.bodies == nil {
		m.bodies = make(map[string][]byte)
	}
	binary := []byte("binary " + tag)
	sum := sha256.Sum256(binary)
	files := map[string][]byte{
		"example_linux_amd64": binary,
		"checksums.txt":       []byte(hex.EncodeToString(sum[:]) + "  example_linux_amd64\n"),
	}

	rel := source.Release{
		Tag:         tag,
		Name:        "Example " + tag,
		Prerelease:  prerelease,
		PublishedAt: time.Date(2026, time.January, len(m.releases)+1, 9, 0, 0, 0, time.UTC),
	}
	for _, name := range []string{"example_linux_amd64", "checksums.txt"} {
		url := tag + "/" + name
		m.bodies[url] = files[name]
		rel.Assets = append(rel.Assets, source.AssetRef{Name: name, URL: url, Size: int64(len(files[name]))})
	}
	m.releases = append(m.releases, rel)
}

// cliEnv is an isolated home, config file and installed binary.
type cliEnv struct {
	t      *testing.T
	dir    string
	config string
	target string
	src    *memorySource

	// progress receives the download status line.
	progress bytes.Buffer
}

func newCLIEnv(t *testing.T, version string) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SELFUP_CONFIG", "")
	t.Setenv("SELFUP_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	env := &cliEnv{
		t:      t,
		dir:    dir,
		config: filepath.Join(dir, "selfup.toml"),
		target: filepath.Join(dir, "bin", "example"),
		src:    &memorySource{},
	}
	env.src.publish("v1.0.0", false)
	env.src.publish("v1.2.0", false)
	env.src.publish("v1.3.0-rc.1", true)
	env.src.publish("v1.1.0", false)
	env.src.publish("nightly", false)

	env.writeConfig(`prefix  = "v"
version = "^1.0"

[repo]
owner = "octocat"
name  = "example"

[source]
token = "secret-token"

[update]
check_interval = "0s"
`)

	if err := os.MkdirAll(filepath.Dir(env.target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.target, []byte("binary installed"), 0o755); err != nil {
		t.Fatal(err)
	}

	origVersion, origUpdater := Version, newUpdater
	Version = version
	newUpdater = func() *update.Updater {
		return update.New(update.Options{
			Source:   env.src,
			Platform: resolve.Platform{OS: "linux", Arch: "amd64"},
			Target:   env.target,
			Strategy: swap.InPlaceReplace{},
			Progress: downloadProgress(&env.progress),
		})
	}
	display.SetColorsEnabled(false)
	t.Cleanup(func() {
		Version, newUpdater = origVersion, origUpdater
		display.SetColorsEnabled(true)
	})

	return env
}

func (e *cliEnv) writeConfig(content string) {
	e.t.Helper()
	if err := os.WriteFile(e.config, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
}

func (e *cliEnv) installed() string {
	e.t.Helper()
	data, err := os.ReadFile(e.target)
	if err != nil {
		e.t.Fatal(err)
	}
	return string(data)
}

// run executes the root command with fresh flag values.
func (e *cliEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()

	cfgPath, verbose, noColor, jsonLogs = "", false, true, false
	updateVersion, updateCheckOnly, updateYes, updateAllowUnverified = "", false, false, false
	releasesAll = false
	configFormat = "toml"
	backgroundDone = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--no-color", "--config", e.config}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
