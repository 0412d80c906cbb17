package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/forsetihq/flowd/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlpmetricgrpc "go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

var (
	metricsOnce       sync.Once
	loginCounter      metric.Int64Counter
	challengeCounter  metric.Int64Counter
	demoResetCounter  metric.Int64Counter
	enrollmentCounter metric.Int64Counter
)

func initInstruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/forsetihq/flowd")
		loginCounter, _ = meter.Int64Counter("auth.logins",
			metric.WithDescription("login attempts by strategy and outcome"))
		challengeCounter, _ = meter.Int64Counter("auth.challenge_redemptions",
			metric.WithDescription("sms challenge completion attempts by outcome"))
		demoResetCounter, _ = meter.Int64Counter("demo.resets",
			metric.WithDescription("demo store resets by trigger"))
		enrollmentCounter, _ = meter.Int64Counter("auth.enrollments",
			metric.WithDescription("bootstrap enrollment attempts by outcome"))
	})
}

func RecordLogin(ctx context.Context, strategy, outcome string) {
	initInstruments()
	loginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	))
}

func RecordChallengeRedemption(ctx context.Context, outcome string) {
	initInstruments()
	challengeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordDemoReset(ctx context.Context, trigger string) {
	initInstruments()
	demoResetCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

func RecordEnrollment(ctx context.Context, outcome string) {
	initInstruments()
	enrollmentCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func InitMetrics(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		return nil, nil
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metrics resource: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}
