package resolve

import (
	"runtime"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/valksor/go-selfup/internal/archive"
	"github.com/valksor/go-selfup/internal/source"
	"github.com/valksor/go-selfup/internal/version"
)

// Platform is the OS/architecture pair an asset must be built for, in GOOS
// and GOARCH spelling.
type Platform struct {
	OS   string
	Arch string
}

// Current returns the platform of the running process.
func Current() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

var osAliases = map[string][]string{
	"darwin":  {"darwin", "macos", "osx", "apple", "mac"},
	"windows": {"windows", "win", "win64", "win32"},
	"linux":   {"linux"},
	"freebsd": {"freebsd"},
}

var archAliases = map[string][]string{
	"amd64": {"amd64", "x64", "64bit"},
	"arm64": {"arm64", "aarch64"},
	"386":   {"386", "i386", "i686", "x86", "32bit"},
	"arm":   {"arm", "armv6", "armv6l", "armv7", "armv7l", "armhf"},
}

// darwin builds published as fat binaries match any architecture.
var universalArch = []string{"universal", "all"}

// sidecarSuffixes mark checksum, signature and certificate files that sit
// next to real assets.
var sidecarSuffixes = []string{
	".sha256", ".sha512", ".sha256sum", ".sha512sum", ".md5",
	".sig", ".asc", ".pem", ".crt", ".minisig", ".sbom", ".intoto.jsonl",
}

// fold case-folds s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// IsSidecar reports whether name is a checksum or signature file rather
// than a build artifact.
func IsSidecar(name string) bool {
	lower := fold(name)
	for _, s := range sidecarSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return strings.Contains(lower, "checksums") || strings.HasSuffix(lower, "sums") || strings.HasSuffix(lower, "sums.txt")
}

func aliases(table map[string][]string, key string) []string {
	if a, ok := table[key]; ok {
		return a
	}
	return []string{key}
}

func tokens(name string) []string {
	lower := fold(name)
	lower = strings.NewReplacer("x86_64", "amd64", "x86-64", "amd64").Replace(lower)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
}

func containsAny(toks, want []string) bool {
	return slices.ContainsFunc(toks, func(t string) bool { return slices.Contains(want, t) })
}

// Matches reports whether the asset name carries both an OS and an
// architecture token for p.
func (p Platform) Matches(name string) bool {
	if IsSidecar(name) {
		return false
	}
	toks := tokens(name)
	if !containsAny(toks, aliases(osAliases, p.OS)) {
		return false
	}
	if containsAny(toks, aliases(archAliases, p.Arch)) {
		return true
	}
	return p.OS == "darwin" && containsAny(toks, universalArch)
}

// Selector picks the platform asset out of a release.
type Selector struct {
	Platform Platform
	// Template names the asset exactly, with {{name}}, {{os}}, {{arch}} and
	// {{version}} placeholders. An archive or .exe suffix may follow.
	Template string
	// Name fills {{name}}.
	Name string
}

func (s Selector) expand(v version.Version) string {
	return strings.NewReplacer(
		"{{name}}", s.Name,
		"{{os}}", s.Platform.OS,
		"{{arch}}", s.Platform.Arch,
		"{{version}}", v.String(),
	).Replace(s.Template)
}

// Matches reports whether the asset name is the platform build for v.
func (s Selector) Matches(name string, v version.Version) bool {
	if s.Template == "" {
		return s.Platform.Matches(name)
	}

	want := fold(s.expand(v))
	got := fold(name)
	if got == want {
		return true
	}
	rest, ok := strings.CutPrefix(got, want)
	if !ok {
		return false
	}
	return rest == ".exe" || archive.Format(rest) == rest
}

// Pick returns the first matching asset in listing order.
func (s Selector) Pick(assets []source.AssetRef, v version.Version) (source.AssetRef, bool) {
	for _, a := range assets {
		if s.Matches(a.Name, v) {
			return a, true
		}
	}
	return source.AssetRef{}, false
}
