package main

import (
	"fmt"
	"os"

	"parsenumber/internal/logging"
	"parsenumber/internal/metrics"
	"parsenumber/internal/metrics/datadog"
	"parsenumber/internal/metrics/prompush"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultDogStatsDAddr  = "127.0.0.1:8125"
)

// newMetricsBackend picks the backend: flag, then METRICS_BACKEND. A nil
// backend means metrics are off.
func newMetricsBackend(opts options, job string) (metrics.Backend, error) {
	name := firstNonEmpty(opts.metricsBackend, os.Getenv("METRICS_BACKEND"))
	switch name {
	case "", "none":
		return nil, nil
	case "pushgateway":
		url := firstNonEmpty(opts.pushgatewayURL, os.Getenv("PUSHGATEWAY_URL"), defaultPushgatewayURL)
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog":
		addr := firstNonEmpty(opts.datadogAddr, os.Getenv("DD_DOGSTATSD_ADDR"), defaultDogStatsDAddr)
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "parsenumber.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", name)
	}
}

// installMetrics installs the selected backend and returns its flush. The
// returned flush is always callable.
func installMetrics(opts options, job string) (func() error, error) {
	b, err := newMetricsBackend(opts, job)
	if err != nil || b == nil {
		return func() error { return nil }, err
	}
	metrics.SetBackend(b)
	logging.L().WithField("backend", fmt.Sprintf("%T", b)).Debug("metrics: enabled")
	return metrics.Flush, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
