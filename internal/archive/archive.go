// Package archive pulls the executable out of a downloaded release asset.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// maxBinaryBytes caps how much is read from a compressed entry.
var maxBinaryBytes int64 = 512 << 20

var (
	// ErrBinaryNotFound is returned when an archive holds no recognizable executable.
	ErrBinaryNotFound = errors.New("binary not found in archive")
	// ErrBinaryTooLarge is returned while reading an entry that exceeds the size cap.
	ErrBinaryTooLarge = errors.New("binary exceeds size limit")
)

// Extensions lists the recognized asset suffixes, longest match first.
var Extensions = []string{
	".tar.gz", ".tgz",
	".tar.xz", ".txz",
	".tar.zst", ".tzst",
	".tar",
	".zip",
	".gz", ".xz", ".zst",
}

// Format returns the recognized suffix of name, or "" for a raw binary.
func Format(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return ""
}

// Extract opens the asset stored at src and returns a reader over the
// executable named binary. assetName selects the format. Inside multi-file
// archives the entry whose base name is binary (or binary.exe) wins;
// failing that, the single executable regular file is used.
func Extract(src, assetName, binary string) (io.ReadCloser, error) {
	switch ext := Format(assetName); ext {
	case ".zip":
		return extractZip(src, binary)
	case ".tar.gz", ".tgz", ".tar.xz", ".txz", ".tar.zst", ".tzst", ".tar":
		return extractTar(src, ext, binary)
	case ".gz", ".xz", ".zst":
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		r, err := decompress(f, ext)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stack{Reader: capReader(r), closers: []io.Closer{r, f}}, nil
	default:
		return os.Open(src)
	}
}

// stack closes every layer of a decoder chain, innermost first.
type stack struct {
	io.Reader
	closers []io.Closer
}

func (s *stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// capped reads at most left bytes and fails, rather than stopping early,
// when the underlying stream has more.
type capped struct {
	r    io.Reader
	left int64
}

func capReader(r io.Reader) *capped {
	return &capped{r: r, left: maxBinaryBytes}
}

func (c *capped) Read(p []byte) (int, error) {
	if c.left <= 0 {
		var one [1]byte
		n, err := io.ReadFull(c.r, one[:])
		if n > 0 {
			return 0, fmt.Errorf("%w: more than %d bytes", ErrBinaryTooLarge, maxBinaryBytes)
		}
		return 0, err
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func decompress(r io.Reader, ext string) (io.ReadCloser, error) {
	switch ext {
	case ".tar.gz", ".tgz", ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gz, nil
	case ".tar.xz", ".txz", ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return nopCloser{xr}, nil
	case ".tar.zst", ".tzst", ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nopCloser{r}, nil
	}
}

func matchesBinary(name, binary string) bool {
	base := path.Base(name)
	return base == binary || base == binary+".exe"
}

func isExecutable(name string, mode os.FileMode) bool {
	return mode.IsRegular() && (mode.Perm()&0o111 != 0 || strings.HasSuffix(strings.ToLower(name), ".exe"))
}

// extractTar walks the archive once to find the entry, and a second time
// to open it when the match is the sole executable rather than a name hit.
func extractTar(src, ext, binary string) (io.ReadCloser, error) {
	var executables []string

	found, err := scanTar(src, ext, func(hdr *tar.Header) bool {
		if matchesBinary(hdr.Name, binary) && hdr.FileInfo().Mode().IsRegular() {
			return true
		}
		if isExecutable(hdr.Name, hdr.FileInfo().Mode()) {
			executables = append(executables, hdr.Name)
		}
		return false
	})
	if err != nil || found != nil {
		return found, err
	}

	if len(executables) != 1 {
		return nil, fmt.Errorf("%w: %q (%d executables)", ErrBinaryNotFound, binary, len(executables))
	}

	want := executables[0]
	found, err = scanTar(src, ext, func(hdr *tar.Header) bool { return hdr.Name == want })
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrBinaryNotFound, want)
	}
	return found, nil
}

// scanTar returns a reader positioned on the first entry accepted by pick,
// or nil when the archive ends without one.
func scanTar(src, ext string, pick func(*tar.Header) bool) (io.ReadCloser, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	dec, err := decompress(f, ext)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	closeAll := func() {
		_ = dec.Close()
		_ = f.Close()
	}

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			closeAll()
			return nil, nil
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}
		if pick(hdr) {
			return &stack{Reader: capReader(tr), closers: []io.Closer{dec, f}}, nil
		}
	}
}

func extractZip(src, binary string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	var (
		match       *zip.File
		executables []*zip.File
	)
	for _, f := range zr.File {
		if !f.Mode().IsRegular() {
			continue
		}
		if matchesBinary(f.Name, binary) {
			match = f
			break
		}
		if isExecutable(f.Name, f.Mode()) {
			executables = append(executables, f)
		}
	}
	if match == nil && len(executables) == 1 {
		match = executables[0]
	}
	if match == nil {
		_ = zr.Close()
		return nil, fmt.Errorf("%w: %q (%d executables)", ErrBinaryNotFound, binary, len(executables))
	}

	rc, err := match.Open()
	if err != nil {
		_ = zr.Close()
		return nil, fmt.Errorf("opening zip entry: %w", err)
	}
	return &stack{Reader: capReader(rc), closers: []io.Closer{rc, zr}}, nil
}
