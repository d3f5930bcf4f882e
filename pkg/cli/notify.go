// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/failed-job-deactivator/pkg/audit"
	"github.com/telekom/failed-job-deactivator/pkg/config"
	"github.com/telekom/failed-job-deactivator/pkg/jobstore"
	"github.com/telekom/failed-job-deactivator/pkg/metrics"
	"github.com/telekom/failed-job-deactivator/pkg/notification"
	"github.com/telekom/failed-job-deactivator/pkg/output"
	"github.com/telekom/failed-job-deactivator/pkg/system"
)

type notifyOptions struct {
	jobsPath        string
	batchPath       string
	only            []string
	metricsTextfile string
}

func NewNotifyCommand() *cobra.Command {
	opts := notifyOptions{
		jobsPath:        getEnvString("DEACTIVATOR_JOBS_FILE", ""),
		batchPath:       getEnvString("DEACTIVATOR_BATCH_FILE", ""),
		only:            getEnvList("DEACTIVATOR_ONLY"),
		metricsTextfile: getEnvString("DEACTIVATOR_METRICS_TEXTFILE", ""),
	}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Annotate, log and mail every job of a detection batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			return runNotify(cmd, rt, opts)
		},
	}

	cmd.Flags().StringVar(&opts.jobsPath, "jobs", opts.jobsPath, "Path to the job store file (env DEACTIVATOR_JOBS_FILE)")
	cmd.Flags().StringVar(&opts.batchPath, "batch", opts.batchPath, "Path to the detected jobs batch file (env DEACTIVATOR_BATCH_FILE)")
	cmd.Flags().StringSliceVar(&opts.only, "only", opts.only, "Only handle jobs matching these patterns, e.g. team/* (env DEACTIVATOR_ONLY)")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", opts.metricsTextfile,
		"Write run metrics to this file for the node-exporter textfile collector (env DEACTIVATOR_METRICS_TEXTFILE)")

	return cmd
}

func runNotify(cmd *cobra.Command, rt *runtimeState, opts notifyOptions) error {
	if opts.jobsPath == "" {
		return errors.New("--jobs is required")
	}
	if opts.batchPath == "" {
		return errors.New("--batch is required")
	}
	format, err := output.ParseFormat(rt.outputFormat)
	if err != nil {
		return err
	}
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	log := rt.Logger()

	entries, err := jobstore.LoadBatch(opts.batchPath)
	if err != nil {
		return err
	}
	entries, err = jobstore.Filter(entries, opts.only)
	if err != nil {
		return err
	}

	store, err := jobstore.Open(opts.jobsPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("Failed to release job store lock", "path", opts.jobsPath, "error", err)
		}
	}()

	batch, unknown := jobstore.Resolve(store, entries)
	for _, name := range unknown {
		log.Warnw("Detected job is not in the job store, skipping", system.JobFields(name)...)
	}

	sink, err := buildAuditSink(cfg.Audit, log.Desugar())
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warnw("Failed to close audit sink", "sink", sink.Name(), "error", err)
		}
	}()

	transport := resolveTransport(cfg, log)
	dispatcher := notification.NewDispatcher(transport, cfg, log, notification.WithAuditSink(sink))

	log.Infow("Dispatching detected jobs",
		"jobs", len(batch),
		"unknown", len(unknown),
		"mailEnabled", transport.Enabled(),
		"runID", dispatcher.RunID())
	summary := dispatcher.Dispatch(cmd.Context(), batch)
	log.Infow("Dispatch finished",
		"processed", summary.Processed,
		"descriptionFailures", summary.DescriptionFailures,
		"sent", summary.Sent,
		"deliveryFailures", summary.DeliveryFailures,
		"skipped", summary.Skipped)

	if format == output.FormatTable {
		output.WriteSummaryTable(rt.Writer(), summary)
	} else if err := output.WriteObject(rt.Writer(), format, summary); err != nil {
		return err
	}

	if opts.metricsTextfile != "" {
		if err := metrics.WriteTextfile(opts.metricsTextfile); err != nil {
			return fmt.Errorf("writing metrics textfile: %w", err)
		}
	}
	return nil
}

// buildAuditSink combines the configured sinks. With none configured the
// result is a NopSink.
func buildAuditSink(cfg config.Audit, log *zap.Logger) (audit.Sink, error) {
	var sinks []audit.Sink
	if cfg.Log {
		sinks = append(sinks, audit.NewLogSink(log))
	}
	if cfg.Kafka != nil {
		kafkaCfg, err := cfg.Kafka.SinkConfig()
		if err != nil {
			return nil, err
		}
		kafkaSink, err := audit.NewKafkaSink(kafkaCfg, log.Named("audit"))
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("creating Kafka audit sink: %w", err)
		}
		sinks = append(sinks, kafkaSink)
	}

	switch len(sinks) {
	case 0:
		return audit.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return audit.NewMultiSink(sinks, log.Named("audit")), nil
	}
}
