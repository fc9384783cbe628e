package verify

import (
	"path"
	"strings"
)

// Entry is one line of a checksum manifest.
type Entry struct {
	Name   string
	Digest Digest
}

// ParseChecksums parses a manifest in sha256sum/sha512sum format:
// "<hex>  <name>" or "<hex> *<name>" for binary mode. Lines that do not
// parse are skipped.
func ParseChecksums(content string) []Entry {
	var entries []Entry
	for line := range strings.Lines(content) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		d, err := ParseDigest(parts[0])
		if err != nil {
			continue
		}

		name := strings.TrimPrefix(strings.Join(parts[1:], " "), "*")
		entries = append(entries, Entry{Name: name, Digest: d})
	}
	return entries
}

// Lookup finds the digest for assetName. Entries recorded with a directory
// ("dist/tool.tar.gz") match on their base name.
func Lookup(entries []Entry, assetName string) (Digest, bool) {
	for _, e := range entries {
		if e.Name == assetName {
			return e.Digest, true
		}
	}
	for _, e := range entries {
		if path.Base(e.Name) == assetName {
			return e.Digest, true
		}
	}
	return Digest{}, false
}

// parseSidecar reads a single-asset checksum file. It holds the hex digest,
// optionally followed by the file name.
func parseSidecar(content string) (Digest, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return Digest{}, ErrInvalidDigest
	}
	return ParseDigest(fields[0])
}
