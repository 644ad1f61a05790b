package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"parsenumber/internal/config"
	"parsenumber/internal/logging"
	"parsenumber/internal/pipeline"

	// register every storage backend; the config picks one.
	_ "parsenumber/internal/storage/all"
)

var (
	FlagNameConfig         = "config"
	FlagNameMetricsBackend = "metrics-backend"
	FlagNamePushgatewayURL = "pushgateway-url"
	FlagNameDatadogAddr    = "datadog-addr"
	FlagNameValidate       = "validate"
	FlagNameVerbose        = "verbose"
)

type options struct {
	configPath     string
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	validate       bool
	verbose        bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "parsenumber",
		Short: "Parse a text column into an Int or Double column",
		Long: `parsenumber reads rows from the configured source, replaces the selected
text column with INT(<name>) or DOUBLE(<name>) holding the parsed values, and
writes the result to the configured storage backend. Values that are missing
or do not parse are left empty.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, FlagNameConfig, "c", "pipeline.json", "pipeline config JSON path")
	f.StringVar(&opts.metricsBackend, FlagNameMetricsBackend, "", "metrics backend: pushgateway, datadog or none (default from METRICS_BACKEND)")
	f.StringVar(&opts.pushgatewayURL, FlagNamePushgatewayURL, "", "Pushgateway base URL (default from PUSHGATEWAY_URL)")
	f.StringVar(&opts.datadogAddr, FlagNameDatadogAddr, "", "DogStatsD address (default from DD_DOGSTATSD_ADDR)")
	f.BoolVar(&opts.validate, FlagNameValidate, false, "validate the configuration and exit")
	f.BoolVarP(&opts.verbose, FlagNameVerbose, "v", false, "enable debug logs")

	cmd.AddCommand(newProbeCmd())
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	logging.SetLogger(logging.New(cmd.ErrOrStderr(), opts.verbose))
	log := logging.L()

	p, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := lint(cmd.ErrOrStderr(), p); err != nil {
		return fmt.Errorf("%s: %w", opts.configPath, err)
	}
	if opts.validate {
		log.WithField("config", opts.configPath).Info("configuration is valid")
		return nil
	}

	flush, err := installMetrics(opts, p.Job)
	if err != nil {
		log.WithError(err).Warn("metrics: disabled")
	}
	defer func() {
		if err := flush(); err != nil {
			log.WithError(err).Warn("metrics: flush failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"source":   p.Source.Kind,
		"parser":   p.Parser.Kind,
		"operator": p.Operator.Kind,
		"storage":  p.Storage.Kind,
		"table":    p.Storage.DB.Table,
	}).Debug("pipeline loaded")

	start := time.Now()
	if _, err := pipeline.Run(cmd.Context(), p); err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(start).Truncate(time.Millisecond)).Debug("completed")
	return nil
}

// lint prints every issue and fails when any of them is an error.
func lint(w io.Writer, p config.Pipeline) error {
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}
