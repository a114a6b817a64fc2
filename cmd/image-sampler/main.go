package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	imagesampler "github.com/menta2k/image-sampler"
	"github.com/menta2k/image-sampler/internal/config"
	"github.com/menta2k/image-sampler/internal/logging"
	"github.com/menta2k/image-sampler/pkg/describe"
	"github.com/menta2k/image-sampler/pkg/processing"
	"github.com/menta2k/image-sampler/pkg/sampler"
	"github.com/menta2k/image-sampler/pkg/source"
	"github.com/menta2k/image-sampler/pkg/types"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalid      = 2
	exitInsufficient = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("image-sampler", flag.ContinueOnError)

	var in, configPath, size, logFile, logLevel string
	var verbose, saveConfig bool

	cfg := config.Default()

	fs.StringVar(&in, "in", "", "input image path or URL (jpg/png/gif/webp/bmp/tiff)")
	fs.StringVar(&configPath, "config", "", "JSON config file (flags override it)")
	fs.BoolVar(&saveConfig, "saveconfig", false, "write the effective config to -config (or the default path) and exit")
	fs.StringVar(&size, "size", "", "sample size WxH (default 100x50)")
	fs.IntVar(&cfg.Sampler.Count, "n", cfg.Sampler.Count, "number of samples")
	fs.Int64Var(&cfg.Sampler.Seed, "seed", 0, "random seed, 0 for a random permutation")
	fs.IntVar(&cfg.Sampler.Workers, "workers", cfg.Sampler.Workers, "concurrent crop extraction")
	fs.IntVar(&cfg.Sampler.Retries, "retries", 0, "extra attempts after an insufficient-samples failure")

	fs.StringVar(&cfg.Output.Dir, "out", cfg.Output.Dir, "output directory")
	fs.StringVar(&cfg.Output.Format, "ext", cfg.Output.Format, "output format: jpg|png|webp|bmp|tiff|gif")
	fs.IntVar(&cfg.Output.Quality, "quality", cfg.Output.Quality, "JPEG/WebP output quality (1-100)")
	fs.BoolVar(&cfg.Output.Lossless, "lossless", false, "WebP lossless mode")
	fs.StringVar(&cfg.Output.Prefix, "prefix", "", "prefix for sample file names")
	fs.BoolVar(&cfg.Output.Manifest, "manifest", false, "write manifest.json describing every sample")
	fs.BoolVar(&cfg.Output.Debug, "debug", false, "write an overlay of the selected boxes on the source image")

	fs.BoolVar(&cfg.Describe.Enabled, "describe", false, "caption each sample with an Ollama vision model")
	fs.StringVar(&cfg.Describe.URL, "url", cfg.Describe.URL, "Ollama server URL")
	fs.StringVar(&cfg.Describe.Model, "model", cfg.Describe.Model, "Ollama model name")

	fs.StringVar(&logFile, "log", "", "also write JSON logs to this rotated file")
	fs.StringVar(&logLevel, "loglevel", "", "log level: debug|info|warn|error")
	fs.BoolVar(&verbose, "v", false, "shorthand for -loglevel debug")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInvalid
	}

	// Config file first, then explicitly set flags on top
	if configPath != "" && !saveConfig {
		fileCfg, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInvalid
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		cfg = mergeFlags(fileCfg, cfg, set)
	}
	if size != "" {
		sz, err := types.ParseSize(size)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitInvalid
		}
		cfg.Sampler.Width, cfg.Sampler.Height = sz.Width, sz.Height
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if saveConfig {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if err := cfg.SaveToFile(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		fmt.Println(path)
		return exitOK
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return exitInvalid
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalid
	}
	defer cleanup()
	slog.SetDefault(logger)

	if in == "" {
		slog.Error(fmt.Sprintf("usage: %s -in input.jpg|URL [-size 100x50] [-n 3] [-out dir] [-ext jpg|png|webp] [-seed N] [-manifest] [-debug] [-describe]",
			filepath.Base(os.Args[0])))
		return exitInvalid
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sample(ctx, cfg, in); err != nil {
		switch {
		case errors.Is(err, sampler.ErrInvalidArgument):
			slog.Error("invalid argument", "error", err)
			return exitInvalid
		case errors.Is(err, sampler.ErrInsufficientSamples):
			slog.Error("not enough room for samples", "error", err)
			return exitInsufficient
		default:
			slog.Error("sampling failed", "error", err)
			return exitFailure
		}
	}
	return exitOK
}

func sample(ctx context.Context, cfg *config.Config, in string) error {
	is := imagesampler.NewWithConfig(
		source.Config{
			SupportedFormats: cfg.Source.SupportedFormats,
			AutoOrientation:  cfg.Source.AutoOrientation,
			HTTPTimeout:      time.Duration(cfg.Source.HTTPTimeoutSeconds) * time.Second,
			MaxBytes:         int64(cfg.Source.MaxImageMB) << 20,
		},
		sampler.Config{Seed: cfg.Sampler.Seed, Workers: cfg.Sampler.Workers},
		processing.EncodeOptions{Format: cfg.Output.Format, Quality: cfg.Output.Quality, Lossless: cfg.Output.Lossless},
	)
	is.SetRetries(cfg.Sampler.Retries)
	is.SetPrefix(cfg.Output.Prefix)

	if cfg.Describe.Enabled {
		var opts []describe.Option
		if cfg.Describe.Prompt != "" {
			opts = append(opts, describe.WithPrompt(cfg.Describe.Prompt))
		}
		client, err := describe.NewClient(cfg.Describe.URL, cfg.Describe.Model, opts...)
		if err != nil {
			return fmt.Errorf("failed to create Ollama client: %w", err)
		}
		is.SetDescriber(client)
	}

	start := time.Now()
	img, err := is.LoadImage(in)
	if err != nil {
		return err
	}
	dims := img.Dimensions()
	size := cfg.SampleSize()
	slog.Info("loaded image", "source", in, "width", dims.Width, "height", dims.Height, "format", img.Format())

	res, err := is.Sample(ctx, img, size, cfg.Sampler.Count)
	if err != nil {
		return err
	}
	for _, r := range res.Regions {
		slog.Debug("selected sample", "index", r.Index, "box", r.Box.String())
	}
	slog.Info("selected samples", "count", len(res.Regions), "size", size.String(), "seed", res.Seed, "elapsed", time.Since(start))

	manifest, err := is.SaveSamples(ctx, in, cfg.Output.Dir, res)
	if err != nil {
		return err
	}
	for _, s := range manifest.Samples {
		if s.Description != "" {
			slog.Info("wrote sample", "file", s.File, "description", s.Description)
		} else {
			slog.Info("wrote sample", "file", s.File)
		}
	}

	if cfg.Output.Debug {
		boxes := make([]types.Box, len(res.Regions))
		for i, r := range res.Regions {
			boxes[i] = r.Box
		}
		overlay := processing.NewProcessor().CreateDebugOverlay(img.Image(), boxes)
		dbgPath := filepath.Join(cfg.Output.Dir, is.OutputStem(in)+"_boxes.png")
		if err := processing.NewProcessor().SaveImage(overlay, dbgPath, processing.EncodeOptions{Format: "png"}); err != nil {
			slog.Warn("debug overlay save failed", "error", err)
		} else {
			slog.Info("wrote debug overlay", "file", dbgPath)
		}
	}

	if cfg.Output.Manifest {
		path := filepath.Join(cfg.Output.Dir, "manifest.json")
		if err := processing.WriteManifest(path, manifest); err != nil {
			return err
		}
		slog.Info("wrote manifest", "file", path)
	}

	return nil
}

// mergeFlags copies every explicitly set flag value from flagCfg onto fileCfg
func mergeFlags(fileCfg, flagCfg *config.Config, set map[string]bool) *config.Config {
	overrides := map[string]func(){
		"n":        func() { fileCfg.Sampler.Count = flagCfg.Sampler.Count },
		"seed":     func() { fileCfg.Sampler.Seed = flagCfg.Sampler.Seed },
		"workers":  func() { fileCfg.Sampler.Workers = flagCfg.Sampler.Workers },
		"retries":  func() { fileCfg.Sampler.Retries = flagCfg.Sampler.Retries },
		"out":      func() { fileCfg.Output.Dir = flagCfg.Output.Dir },
		"ext":      func() { fileCfg.Output.Format = strings.ToLower(flagCfg.Output.Format) },
		"quality":  func() { fileCfg.Output.Quality = flagCfg.Output.Quality },
		"lossless": func() { fileCfg.Output.Lossless = flagCfg.Output.Lossless },
		"prefix":   func() { fileCfg.Output.Prefix = flagCfg.Output.Prefix },
		"manifest": func() { fileCfg.Output.Manifest = flagCfg.Output.Manifest },
		"debug":    func() { fileCfg.Output.Debug = flagCfg.Output.Debug },
		"describe": func() { fileCfg.Describe.Enabled = flagCfg.Describe.Enabled },
		"url":      func() { fileCfg.Describe.URL = flagCfg.Describe.URL },
		"model":    func() { fileCfg.Describe.Model = flagCfg.Describe.Model },
	}
	for name, apply := range overrides {
		if set[name] {
			apply()
		}
	}
	return fileCfg
}
