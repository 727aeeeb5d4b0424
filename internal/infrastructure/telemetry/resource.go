package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// serviceResource merges the default resource with the service identity
// shared by the trace, metric and log providers.
func serviceResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// shutdownProvider applies the shutdown timeout and error wrapping shared by
// the trace, metric and log providers.
func shutdownProvider(ctx context.Context, logger *zap.Logger, name string, shutdown func(context.Context) error) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down "+name, zap.Error(err))
		return fmt.Errorf("failed to shutdown %s: %w", name, err)
	}
	return nil
}
