package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RegisterRequestsTotal   metric.Int64Counter
	RegisterDurationSeconds metric.Float64Histogram
	LoginRequestsTotal      metric.Int64Counter
	LoginFailuresTotal      metric.Int64Counter
	LogoutRequestsTotal     metric.Int64Counter
	TodoOperationsTotal     metric.Int64Counter
	DbQueryErrorsTotal      metric.Int64Counter
}

// New creates every instrument on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	m := &AppMetrics{}
	var err error

	if m.RegisterRequestsTotal, err = meter.Int64Counter(
		"register_requests_total",
		metric.WithDescription("Total number of register requests completed"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("register_requests_total: %w", err)
	}

	if m.RegisterDurationSeconds, err = meter.Float64Histogram(
		"register_duration_seconds",
		metric.WithDescription("Duration of register requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("register_duration_seconds: %w", err)
	}

	if m.LoginRequestsTotal, err = meter.Int64Counter(
		"login_requests_total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("login_requests_total: %w", err)
	}

	if m.LoginFailuresTotal, err = meter.Int64Counter(
		"login_failures_total",
		metric.WithDescription("Total number of rejected login attempts"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("login_failures_total: %w", err)
	}

	if m.LogoutRequestsTotal, err = meter.Int64Counter(
		"logout_requests_total",
		metric.WithDescription("Total number of logouts"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("logout_requests_total: %w", err)
	}

	if m.TodoOperationsTotal, err = meter.Int64Counter(
		"todo_operations_total",
		metric.WithDescription("Total number of todo operations by kind"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("todo_operations_total: %w", err)
	}

	if m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, fmt.Errorf("db_query_errors_total: %w", err)
	}

	return m, nil
}

// NewNoop returns instruments that record nothing. Used in tests.
func NewNoop() *AppMetrics {
	m, _ := New(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordTodoOperation counts one todo operation with its outcome.
func (m *AppMetrics) RecordTodoOperation(ctx context.Context, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.TodoOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
