// Package main is the registration probe: a smoke-test utility that submits one
// account registration to a deployed API and prints what came back. It prints the
// payload before sending, then either the status code and JSON response or the
// error together with any partial response, making it useful for quick
// post-deployment checks of the /register endpoint without curl or a full
// integration suite.
//
// Everything is configured through REGPROBE_* environment variables (see
// internal/config); with none set it probes the production deployment using the
// fixed test account. Transport failures are reported and the process still exits
// 0. A 2xx response whose body is not JSON exits 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/njoy/registration-probe/internal/config"
	"github.com/njoy/registration-probe/internal/probe"
	"github.com/njoy/registration-probe/internal/report"
	"github.com/njoy/registration-probe/internal/telemetry"
)

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	telemetry.SetupLogger(stderr, cfg.Logging.Format, cfg.Logging.Level)

	opts := []probe.Option{probe.WithFailOnStatus(cfg.HTTP.FailOnStatus)}
	if cfg.HTTP.Timeout > 0 {
		opts = append(opts, probe.WithTimeout(cfg.HTTP.Timeout))
	}
	p := probe.New(cfg.Target.BaseURL, opts...)
	req := cfg.Payload.Request()

	rep := report.New(stdout)
	if err := rep.Payload(p.URL(), req); err != nil {
		return err
	}

	started := time.Now()
	resp, runErr := p.Run(ctx, req)
	took := time.Since(started)

	if err := rep.Result(resp, runErr); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	outcome := probe.Outcome(runErr)
	status := statusCode(resp, runErr)
	telemetry.ObserveProbe(outcome, status, took)
	slog.Info("registration probe finished", "url", p.URL(), "outcome", outcome, "status", status, "duration", took)

	if cfg.Metrics.PushgatewayURL != "" {
		if err := telemetry.PushMetrics(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}

	// A success response that is not JSON aborts the run; every other failure has
	// already been reported in full.
	if errors.Is(runErr, probe.ErrDecode) {
		return runErr
	}
	return nil
}

// statusCode returns the HTTP status seen by the run, or 0 if no response arrived.
func statusCode(resp *probe.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	if pe, ok := probe.AsError(err); ok && pe.HasResponse() {
		return pe.Response.StatusCode
	}
	return 0
}
