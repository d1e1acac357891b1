package artifact

import (
	"archive/tar"
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"lukechampine.com/blake3"

	"github.com/oshokin/cuda-installer/internal/domain/bundle"
)

var (
	// ErrUnsupportedFormat is returned when the archive compression is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrNoPackageInfo is returned when the archive carries no .PKGINFO entry.
	ErrNoPackageInfo = errors.New("package info not found")
	// ErrMismatch is returned when the archive describes a different package.
	ErrMismatch = errors.New("artifact does not match manifest")
)

const (
	// packageInfoEntry is the metadata file at the archive root.
	packageInfoEntry = ".PKGINFO"
	// digestSize is the BLAKE3 output length in bytes.
	digestSize = 32
	// sniffSize covers the tar header block.
	sniffSize = 512
	// tarMagicOffset is where the ustar magic starts in a tar header.
	tarMagicOffset = 257
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1f, 0x8b}
	tarMagic  = []byte("ustar")
)

// Format is the detected archive compression.
type Format string

// Supported formats.
const (
	FormatZstd Format = "zstd"
	FormatXZ   Format = "xz"
	FormatGzip Format = "gzip"
	FormatTar  Format = "tar"
)

// Info describes a package archive.
type Info struct {
	// Name is pkgname from .PKGINFO.
	Name string
	// Version is pkgver from .PKGINFO, including pkgrel.
	Version string
	// Format is the archive compression.
	Format Format
	// Digest is the hex BLAKE3 digest of the archive file.
	Digest string
	// Size is the archive size in bytes.
	Size int64
}

// Inspect reads metadata and digest of the archive at path.
func Inspect(path string) (*Info, error) {
	path = filepath.Clean(path)

	digest, size, err := Digest(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = f.Close()
	}()

	head := make([]byte, sniffSize)

	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}

	format, err := detect(head[:n])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	r, closer, err := decompress(format, f)
	if err != nil {
		return nil, fmt.Errorf("open %s archive %s: %w", format, path, err)
	}

	defer closer()

	name, ver, err := readPackageInfo(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Info{
		Name:    name,
		Version: ver,
		Format:  format,
		Digest:  digest,
		Size:    size,
	}, nil
}

// Verify returns ErrMismatch when info does not describe spec.
func (i *Info) Verify(spec bundle.PackageSpec) error {
	if i.Name != spec.Identifier {
		return fmt.Errorf("%w: expected package %s, archive contains %s", ErrMismatch, spec.Identifier, i.Name)
	}

	if !spec.Version.Matches(i.Version) {
		return fmt.Errorf("%w: expected %s version %s, archive contains %s",
			ErrMismatch, spec.Identifier, spec.Version, i.Version)
	}

	return nil
}

// Digest returns the hex BLAKE3 digest and size of the file at path.
func Digest(path string) (string, int64, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", 0, err
	}

	defer func() {
		_ = f.Close()
	}()

	h := blake3.New(digestSize, nil)

	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}

func detect(head []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return FormatZstd, nil
	case bytes.HasPrefix(head, xzMagic):
		return FormatXZ, nil
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGzip, nil
	case len(head) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(head[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return FormatTar, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func decompress(format Format, r io.Reader) (io.Reader, func(), error) {
	switch format {
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}

		return zr, zr.Close, nil
	case FormatXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}

		return xr, func() {}, nil
	case FormatGzip:
		gr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}

		return gr, func() { _ = gr.Close() }, nil
	case FormatTar:
		return r, func() {}, nil
	default:
		return nil, nil, ErrUnsupportedFormat
	}
}

// readPackageInfo scans tar entries until .PKGINFO and returns pkgname and pkgver.
func readPackageInfo(r io.Reader) (string, string, error) {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return "", "", ErrNoPackageInfo
		}

		if err != nil {
			return "", "", fmt.Errorf("read tar header: %w", err)
		}

		if strings.TrimPrefix(hdr.Name, "./") != packageInfoEntry {
			continue
		}

		return parsePackageInfo(tr)
	}
}

func parsePackageInfo(r io.Reader) (string, string, error) {
	var name, ver string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch strings.TrimSpace(key) {
		case "pkgname":
			name = strings.TrimSpace(value)
		case "pkgver":
			ver = strings.TrimSpace(value)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", err
	}

	if name == "" || ver == "" {
		return "", "", fmt.Errorf("%w: pkgname or pkgver missing", ErrNoPackageInfo)
	}

	return name, ver, nil
}
