package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// compressible lists the extensions precompressed sidecars are written for.
var compressible = []string{".js", ".css", ".html", ".svg", ".json", ".map", ".txt"}

var sidecarExt = map[string]string{
	"gzip": ".gz",
	"zstd": ".zst",
	"br":   ".br",
}

// compress writes a sidecar per configured format next to each compressible file, in
// parallel. Returned paths are relative to the output directory.
func (p *Pipeline) compress(ctx context.Context, files []string) ([]string, error) {
	formats := p.config.Optimization.Compress
	if len(formats) == 0 {
		return nil, nil
	}

	var (
		mu         sync.Mutex
		compressed []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, file := range files {
		if !slices.Contains(compressible, path.Ext(file)) {
			continue
		}
		for _, format := range formats {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				src := filepath.Join(p.outdir, filepath.FromSlash(file))
				dst := src + sidecarExt[format]
				if err := compressFile(src, dst, format); err != nil {
					return fmt.Errorf("failed to compress %s with %s: %w", file, format, err)
				}

				mu.Lock()
				compressed = append(compressed, file+sidecarExt[format])
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(compressed)
	p.logger.Info().Int("files", len(compressed)).Strs("formats", formats).Msg("Wrote compressed sidecars")
	return compressed, nil
}

func compressFile(src, dst, format string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	enc, err := newEncoder(out, format)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}

	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		os.Remove(dst) // Clean up partial file
		return err
	}

	// Close encoder to flush
	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}

	return out.Close()
}

func newEncoder(w io.Writer, format string) (io.WriteCloser, error) {
	switch format {
	case "gzip":
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case "zstd":
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case "br":
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	default:
		return nil, fmt.Errorf("unknown compression format %q", format)
	}
}
