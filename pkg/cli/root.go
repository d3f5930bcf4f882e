// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/failed-job-deactivator/pkg/config"
	"github.com/telekom/failed-job-deactivator/pkg/system"
	"github.com/telekom/failed-job-deactivator/pkg/version"
)

type Config struct {
	ConfigPath   string
	Debug        bool
	OutputFormat string
	OutputWriter io.Writer
	// Logger replaces the logger built from Debug.
	Logger *zap.SugaredLogger
}

type runtimeState struct {
	configPath   string
	debug        bool
	outputFormat string
	writer       io.Writer
	log          *zap.SugaredLogger
	cfg          *config.Config
}

type runtimeKey struct{}

// DefaultConfig reads DEACTIVATOR_CONFIG_PATH, DEACTIVATOR_DEBUG and DEACTIVATOR_OUTPUT.
func DefaultConfig() Config {
	return Config{
		ConfigPath:   getEnvString("DEACTIVATOR_CONFIG_PATH", config.DefaultConfigPath),
		Debug:        getEnvBool("DEACTIVATOR_DEBUG", false),
		OutputFormat: getEnvString("DEACTIVATOR_OUTPUT", ""),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath:   cfg.ConfigPath,
		debug:        cfg.Debug,
		outputFormat: cfg.OutputFormat,
		writer:       cfg.OutputWriter,
		log:          cfg.Logger,
	}

	root := &cobra.Command{
		Use:           "deactivator",
		Short:         "Notify about jobs deactivated or deleted by the failed job detection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath
			}
			if rt.log == nil {
				log, err := system.NewLogger(rt.debug)
				if err != nil {
					return err
				}
				rt.log = log
			}

			// Skip config loading for commands that don't need it
			if cmd.Name() == "version" {
				return nil
			}

			rt.log.Infow("Starting failed job deactivator", version.GetBuildInfo().LogFields()...)
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = &cfg
			rt.log.Debugw("Loaded configuration", "path", rt.configPath, "admins", len(cfg.AdminRecipients()))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to the deactivator configuration file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", rt.debug, "Enable debug level logging")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", rt.outputFormat, "Output format: table, json, yaml")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewNotifyCommand(),
		NewTransportCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.log != nil {
		return rt.log
	}
	return zap.NewNop().Sugar()
}

func (rt *runtimeState) Config() (*config.Config, error) {
	if rt.cfg == nil {
		return nil, errors.New("config not loaded")
	}
	return rt.cfg, nil
}
