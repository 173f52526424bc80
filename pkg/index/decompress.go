// pkg/index/decompress.go
package index

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Extensions lists the compressed index variants tried in order.
var Extensions = []string{".xz", ".bz2", ".zst", ".gz", ""}

// Decompress wraps r in a reader for the compression named by ext.
func Decompress(ext string, r io.Reader) (io.ReadCloser, error) {
	switch ext {
	case ".xz":
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return io.NopCloser(xzReader), nil
	case ".bz2":
		return io.NopCloser(bzip2.NewReader(r)), nil
	case ".zst":
		zstReader, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zstReader.IOReadCloser(), nil
	case ".gz":
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gzReader, nil
	case "":
		return io.NopCloser(r), nil
	}
	return nil, fmt.Errorf("unsupported compression %q", ext)
}
