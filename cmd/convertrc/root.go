package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/convertrc/pkg/config"
	"github.com/walteh/convertrc/pkg/operation"
	"github.com/walteh/convertrc/pkg/status"
	"github.com/walteh/convertrc/pkg/translator"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile  string
	apiKey      string
	model       string
	concurrency int
	debug       bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convertrc [flags] <source> <destination>",
		Short: "Batch-convert Java sources to PHP via a model completion endpoint",
		Long: `convertrc walks a source tree, mirrors its directory structure under an
existing destination directory and translates every Java file to PHP with
one request per file. Trees matched by .gitignore are never traversed, so
vendored or generated Java is not translated. A single source file is
converted synchronously straight into the destination directory.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path (defaults to .convertrc.{yaml,hcl,json} when present)")
	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "API key for the completion endpoint (falls back to OPENAI_API_KEY)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model to request")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent conversions (0 = unlimited)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	logLevel := zerolog.InfoLevel
	if debug {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(logLevel).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	cfg.Source = args[0]
	cfg.Destination = args[1]
	cfg.APIKey = apiKey
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if model != "" {
		cfg.Model = model
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	if err := cfg.Validate(ctx); err != nil {
		return err
	}

	op, err := operation.NewConvertOperation(operation.Options{
		Config: cfg,
		Translator: translator.NewOpenAIClient(translator.Options{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
		}),
		Reporter: status.NewManager(os.Stdout, os.Stderr),
	})
	if err != nil {
		return err
	}

	summary, err := op.Execute(ctx)
	if err != nil {
		return err
	}

	// per-file failures do not fail the process unless nothing succeeded
	if summary.Total > 0 && summary.Succeeded == 0 {
		return errors.Errorf("all %d conversions failed", summary.Failed)
	}
	if summary.Failed > 0 {
		logger.Warn().
			Int("failed", summary.Failed).
			Int("total", summary.Total).
			Msg("run completed with failures")
	}
	return nil
}
