package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/interop/internal/cli/config"
	"github.com/conduit-lang/interop/internal/cli/ui"
	"github.com/conduit-lang/interop/internal/compiler/cache"
	"github.com/conduit-lang/interop/internal/compiler/resolve"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	classpath []string
	format    string
	configDir string
	noColor   bool
	noStdlib  bool
}

// environment is the loaded configuration with flag overrides applied.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
	stdlib  bool
}

func (o *globalOptions) load(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.LoadFrom(o.configDir)
	if err != nil {
		ui.ConfigError(err, o.noColor).Write(cmd.ErrOrStderr())
		return nil, err
	}
	if len(o.classpath) > 0 {
		cfg.Classpath = o.classpath
	}
	if o.format != "" {
		if o.format != "text" && o.format != "json" {
			return nil, fmt.Errorf("--format must be text or json, got: %s", o.format)
		}
		cfg.Output.Format = o.format
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &environment{
		cfg:     cfg,
		logger:  logger,
		noColor: o.noColor,
		stdlib:  !o.noStdlib,
	}, nil
}

func (e *environment) json() bool { return e.cfg.Output.Format == "json" }

// openSession loads the classpath and builds a resolution session over it.
func (e *environment) openSession(ctx context.Context, cmd *cobra.Command) (*resolve.Session, *cache.LoadMetrics, error) {
	loader := cache.NewClasspathLoader(
		cache.WithLogger(e.logger),
		cache.WithWorkers(e.cfg.Workers))

	classpath := &cache.Classpath{}
	metrics := &cache.LoadMetrics{}
	if len(e.cfg.Classpath) > 0 {
		var err error
		classpath, metrics, err = loader.Load(ctx, e.cfg.Classpath)
		if err != nil {
			ui.ClasspathError(err, e.noColor).Write(cmd.ErrOrStderr())
			return nil, nil, err
		}
	}

	session, err := resolve.NewSession(resolve.Config{
		Name:               "main",
		AdditionalBuiltIns: e.cfg.AdditionalBuiltins,
		Workers:            e.cfg.Workers,
		Stdlib:             e.stdlib,
	}, classpath.Records(),
		resolve.WithLogger(e.logger),
		resolve.WithPlatformClasses(classpath.PlatformClasses()...))
	if err != nil {
		ui.ClasspathError(err, e.noColor).Write(cmd.ErrOrStderr())
		return nil, nil, err
	}
	e.logger.Debug("session ready",
		zap.String("session", session.ID),
		zap.Int("files", metrics.TotalFiles),
		zap.Int("packages", len(session.Packages())))
	return session, metrics, nil
}
