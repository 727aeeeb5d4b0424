package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls per-statement tracing.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL includes bound parameters in span attributes. Receivable
	// rows carry customer identifiers, so this stays off outside dev.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns the defaults used by the server.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin layers slow-query and error annotations on top of the
// otelgorm spans. It implements gorm.Plugin so callers just db.Use(...) it.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin builds the plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Name implements gorm.Plugin.
func (p *DBTracingPlugin) Name() string {
	return "db_tracing"
}

type dbTracingContextKey string

const queryStartTimeKey dbTracingContextKey = "otel_query_start_time"

// Initialize implements gorm.Plugin. It registers otelgorm for the spans
// themselves, then adds timing callbacks that annotate those spans with
// rows affected, table name, errors, and slow-query events.
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
		}
	}

	registrations := []func() error{
		func() error { return db.Callback().Create().Before("gorm:create").Register("otel_timing:before_create", before) },
		func() error { return db.Callback().Query().Before("gorm:query").Register("otel_timing:before_query", before) },
		func() error { return db.Callback().Update().Before("gorm:update").Register("otel_timing:before_update", before) },
		func() error { return db.Callback().Delete().Before("gorm:delete").Register("otel_timing:before_delete", before) },
		func() error { return db.Callback().Row().Before("gorm:row").Register("otel_timing:before_row", before) },
		func() error { return db.Callback().Raw().Before("gorm:raw").Register("otel_timing:before_raw", before) },
		func() error {
			return db.Callback().Create().After("gorm:create").Register("otel_timing:after_create", p.annotateSpan)
		},
		func() error {
			return db.Callback().Query().After("gorm:query").Register("otel_timing:after_query", p.annotateSpan)
		},
		func() error {
			return db.Callback().Update().After("gorm:update").Register("otel_timing:after_update", p.annotateSpan)
		},
		func() error {
			return db.Callback().Delete().After("gorm:delete").Register("otel_timing:after_delete", p.annotateSpan)
		},
		func() error { return db.Callback().Row().After("gorm:row").Register("otel_timing:after_row", p.annotateSpan) },
		func() error { return db.Callback().Raw().After("gorm:raw").Register("otel_timing:after_raw", p.annotateSpan) },
	}
	for _, reg := range registrations {
		if err := reg(); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// Lookup misses are routine, not errors
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(startTime); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
