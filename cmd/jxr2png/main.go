// Command jxr2png converts JPEG XR images to PNG, BMP or TIFF.
package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	jxr "github.com/yihong0618/Kindle-download-helper-sub001"
)

var encoders = map[string]func(io.Writer, image.Image) error{
	"png": png.Encode,
	"bmp": bmp.Encode,
	"tiff": func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

type config struct {
	outDir  string
	format  string
	jobs    int
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}
	cmd := &cobra.Command{
		Use:   "jxr2png [flags] FILE...",
		Short: "Convert JPEG XR images (.jxr, .wdp, .hdp, optionally .zst compressed)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&cfg.outDir, "out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().StringVarP(&cfg.format, "format", "f", "png", "output format: png, bmp or tiff")
	cmd.Flags().IntVarP(&cfg.jobs, "jobs", "j", 4, "files converted concurrently")
	cmd.Flags().BoolVarP(&cfg.verbose, "verbose", "v", false, "log debug messages")
	return cmd
}

func run(cfg *config, files []string) error {
	encode, ok := encoders[cfg.format]
	if !ok {
		return fmt.Errorf("unknown output format %q", cfg.format)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var g errgroup.Group
	g.SetLimit(max(cfg.jobs, 1))
	for _, file := range files {
		g.Go(func() error {
			out := outputPath(cfg, file)
			log := logger.With(slog.String("file", file))
			if err := convert(file, out, encode, log); err != nil {
				log.Error("conversion failed", slog.Any("error", err))
				return err
			}
			log.Debug("converted", slog.String("output", out))
			return nil
		})
	}
	return g.Wait()
}

func outputPath(cfg *config, file string) string {
	base := strings.TrimSuffix(file, ".zst")
	base = strings.TrimSuffix(base, filepath.Ext(base)) + "." + cfg.format
	if cfg.outDir != "" {
		base = filepath.Join(cfg.outDir, filepath.Base(base))
	}
	return base
}

func convert(in, out string, encode func(io.Writer, image.Image) error, logger *slog.Logger) error {
	data, err := readInput(in)
	if err != nil {
		return err
	}
	r, err := jxr.DecodeBytes(data, &jxr.Options{Logger: logger})
	if err != nil {
		return errors.Wrapf(err, "decode %s", in)
	}
	logger.Debug("decoded",
		slog.Int("width", r.Rect.Dx()), slog.Int("height", r.Rect.Dy()),
		slog.String("format", r.Format.String()))

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := encode(f, r.Image()); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", out)
	}
	return f.Close()
}

// readInput reads a file, decompressing it when it ends in .zst.
func readInput(name string) ([]byte, error) {
	if !strings.HasSuffix(name, ".zst") {
		return os.ReadFile(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	return data, errors.Wrapf(err, "decompress %s", name)
}
