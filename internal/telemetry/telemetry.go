// Package telemetry はOpenTelemetryのトレース送信を設定する。
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc は送信待ちのスパンをフラッシュしてプロバイダーを停止する。
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup はOTLP/gRPCエクスポーターでトレースプロバイダーを構成し、グローバルに登録する。
// endpointが空の場合は何もせず、no-opのShutdownFuncを返す。
// W3C Trace Contextの伝搬はendpointの有無に関わらず有効にする。
func Setup(ctx context.Context, serviceName, endpoint string, insecure bool, logger *slog.Logger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if endpoint == "" {
		logger.Debug("OTLPエンドポイントが未設定のためトレース送信を無効化しました")
		return noop, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		logger.Warn("OTelリソースの構築に失敗しました", slog.String("error", err.Error()))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Info("トレース送信を開始しました",
		slog.String("endpoint", endpoint),
		slog.String("service", serviceName),
	)
	return provider.Shutdown, nil
}
