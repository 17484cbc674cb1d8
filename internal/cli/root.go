// Package cli wires the imagsharp command line onto the resolver and driver.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mahirjain10/imagsharp/config"
	"github.com/mahirjain10/imagsharp/internal/aws"
	"github.com/mahirjain10/imagsharp/internal/driver"
	"github.com/mahirjain10/imagsharp/internal/progress"
	"github.com/mahirjain10/imagsharp/internal/queue"
	"github.com/mahirjain10/imagsharp/internal/resolver"
	"github.com/mahirjain10/imagsharp/internal/types"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flags struct {
	configPath string
	dest       string
	exts       string
	width      string
	format     string
	quality    string
	workers    int
	verbose    bool
	s3Bucket   string
	s3Prefix   string
	amqpURL    string
	exchange   string
}

func NewRootCommand(version string) *cobra.Command {
	f := &flags{}
	defaults := config.NewConfig()

	cmd := &cobra.Command{
		Use:           "imagsharp [flags] <source...>",
		Short:         "Resize, recompress and convert images into a mirrored folder tree",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
			if f.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), cfg, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fl.StringVarP(&f.dest, "dest", "d", defaults.Dest, "The destination folder")
	fl.StringVarP(&f.exts, "expected-exts", "e", strings.Join(defaults.ExpectedExts, ","), "File types to compress")
	fl.StringVarP(&f.width, "width", "w", "", "The width of the picture")
	fl.StringVarP(&f.format, "format", "f", "", "The media type of the picture (png|jpg|webp|gif)")
	fl.StringVarP(&f.quality, "quality", "q", defaults.Quality, "Picture quality (0-100)")
	fl.IntVar(&f.workers, "workers", defaults.Workers, "Number of images converted at once")
	fl.BoolVar(&f.verbose, "verbose", false, "Log every converted file")
	fl.StringVar(&f.s3Bucket, "s3-bucket", "", "Also upload converted files to this S3 bucket")
	fl.StringVar(&f.s3Prefix, "s3-prefix", "", "Key prefix for uploaded files")
	fl.StringVar(&f.amqpURL, "amqp-url", "", "Publish per-file status messages to this RabbitMQ server")
	fl.StringVar(&f.exchange, "amqp-exchange", defaults.Exchange, "Exchange for status messages")

	return cmd
}

// loadConfig layers defaults, the config file, the environment and finally
// the flags that were set explicitly.
func loadConfig(fl *pflag.FlagSet, f *flags) (*config.Config, error) {
	cfg := config.NewConfig()
	if f.configPath != "" {
		if err := config.Load(f.configPath, cfg); err != nil {
			return nil, err
		}
	}
	if err := config.InitializeEnvs(cfg); err != nil {
		return nil, err
	}

	if fl.Changed("dest") {
		cfg.Dest = f.dest
	}
	if fl.Changed("expected-exts") {
		cfg.ExpectedExts = config.SplitList(f.exts)
	}
	if fl.Changed("width") {
		cfg.Width = f.width
	}
	if fl.Changed("format") {
		cfg.Format = f.format
	}
	if fl.Changed("quality") {
		cfg.Quality = f.quality
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("s3-bucket") {
		cfg.S3Bucket = f.s3Bucket
	}
	if fl.Changed("s3-prefix") {
		cfg.S3Prefix = f.s3Prefix
	}
	if fl.Changed("amqp-url") {
		cfg.RabbitMqURL = f.amqpURL
	}
	if fl.Changed("amqp-exchange") {
		cfg.Exchange = f.exchange
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// Run resolves the sources and converts them. Only pre-flight problems are
// returned as errors; per-file failures end up in the printed summary.
func Run(ctx context.Context, cfg *config.Config, sources []string, stdout, stderr io.Writer) error {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	conv := types.ConversionOptions{
		Width:   ParseWidth(cfg.Width),
		Format:  format,
		Quality: ParseQuality(cfg.Quality),
	}

	res, err := resolver.Resolve(sources, cfg.ExpectedExts)
	if err != nil {
		return err
	}

	destRoot, err := filepath.Abs(cfg.Dest)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	opts := driver.Options{
		DestRoot:   destRoot,
		Exts:       cfg.ExpectedExts,
		Conversion: conv,
		Workers:    cfg.Workers,
	}

	if cfg.S3Bucket != "" {
		awsConfig, err := config.InitializeAws(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize AWS config: %w", err)
		}
		opts.Uploader = aws.NewS3Service(aws.NewS3Client(awsConfig), cfg.S3Bucket, cfg.S3Prefix, destRoot)
	}

	runId := uuid.NewString()
	if cfg.RabbitMqURL != "" {
		conn, err := queue.NewRabbitMQClient(cfg.RabbitMqURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		ch, err := queue.NewChannel(conn)
		if err != nil {
			return err
		}
		rabbitMqService, err := queue.NewRabbitMqService(ch, cfg.Exchange, runId)
		if err != nil {
			return err
		}
		defer rabbitMqService.Close()
		opts.Publisher = rabbitMqService
	}

	log.WithFields(log.Fields{
		"run":     runId,
		"files":   len(res.Paths),
		"prefix":  res.Prefix,
		"root":    res.RootDir,
		"dest":    destRoot,
		"workers": cfg.Workers,
	}).Debug("starting conversion")

	bar := progress.New(stderr, len(res.Paths))
	opts.Progress = bar

	summary := driver.Run(ctx, driver.NewJobs(res, destRoot, conv), opts)
	printSummary(stdout, summary)
	return nil
}

func printSummary(w io.Writer, summary driver.Summary) {
	fmt.Fprintln(w, "imagsharp successful!")
	fmt.Fprintf(w, "converted: %d  skipped: %d  failed: %d\n", summary.Converted, summary.Skipped, summary.Failed)
	for _, r := range summary.Failures() {
		fmt.Fprintf(w, "  failed %s: %s\n", r.Job.SourcePath, r.Reason)
	}
}

// IsInputError reports whether err was caused by the command-line input
// rather than by the environment.
func IsInputError(err error) bool {
	return errors.Is(err, resolver.ErrInvalidInput) || errors.Is(err, resolver.ErrNoSources)
}
