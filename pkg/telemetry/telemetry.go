package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlplog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/denysvitali/photowall-server/pkg/config"
)

// ServiceName identifies this server in traces and logs
const ServiceName = "photowall-server"

// Initialize sets up OpenTelemetry tracing and logging using autoexport.
// The returned function flushes and stops the providers.
func Initialize(ctx context.Context, cfg config.TelemetryConfig, logger *logrus.Logger) (func(), error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceNameKey.String(ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	// autoexport only reads the environment
	if cfg.Endpoint != "" {
		if err := os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Endpoint); err != nil {
			return nil, err
		}
		logger.Debugf("Exporting telemetry to %s", cfg.Endpoint)
	}

	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	// Logs are optional; traces still work without them
	var lp *sdklog.LoggerProvider
	logExporter, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		logger.Warnf("Failed to create log exporter: %v", err)
	} else {
		lp = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(lp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		errs := []error{tp.Shutdown(ctx)}
		if lp != nil {
			errs = append(errs, lp.Shutdown(ctx))
		}
		if err := errors.Join(errs...); err != nil {
			logger.Errorf("Error shutting down telemetry: %v", err)
		}
	}, nil
}

// ReportJSON attaches data as JSON to the span in ctx and emits it as a
// debug log record, both to logrus and to the OpenTelemetry log pipeline.
func ReportJSON(ctx context.Context, logger *logrus.Logger, operation string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Errorf("Failed to marshal %s to JSON: %v", operation, err)
		return
	}

	trace.SpanFromContext(ctx).AddEvent(operation, trace.WithAttributes(
		attribute.String("json.data", string(jsonData)),
		attribute.String("data.type", dataType(data)),
	))

	logger.WithFields(logrus.Fields{
		"operation": operation,
		"json_data": string(jsonData),
	}).Debug("JSON data reported")

	var record otlplog.Record
	now := time.Now()
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetSeverity(otlplog.SeverityDebug)
	record.SetSeverityText("DEBUG")
	record.SetBody(otlplog.StringValue(string(jsonData)))
	record.AddAttributes(otlplog.String("operation", operation))
	global.GetLoggerProvider().Logger(ServiceName).Emit(ctx, record)
}

func dataType(data interface{}) string {
	switch reflect.ValueOf(data).Kind() {
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.String:
		return "string"
	default:
		return "unknown"
	}
}
