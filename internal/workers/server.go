// internal/workers/server.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger-be/internal/pkg/logger"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
)

// Processors are the task handlers served by the worker
type Processors struct {
	SaleEvents *SaleEventProcessor
	Exports    *ExportProcessor
	Imports    *ImportProcessor
	Cleanup    *CleanupProcessor
}

// NewServeMux routes every task type to its processor
func NewServeMux(p Processors, m *metrics.Metrics, l *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(Instrument(m, l))

	mux.HandleFunc(TypeSaleCreated, p.SaleEvents.HandleSaleCreated)
	mux.HandleFunc(TypeSaleCancelled, p.SaleEvents.HandleSaleCancelled)
	mux.HandleFunc(TypeSalesExport, p.Exports.ProcessSalesExport)
	mux.HandleFunc(TypeProductImport, p.Imports.ProcessProductImport)
	mux.HandleFunc(TypeCleanupStorage, p.Cleanup.CleanupStorage)
	mux.HandleFunc(TypeCleanupTempFiles, p.Cleanup.CleanupTempFiles)

	return mux
}

// Instrument tags the task context for logging and records task metrics
func Instrument(m *metrics.Metrics, l *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()

			taskID, _ := asynq.GetTaskID(ctx)
			ctx = logger.WithValue(ctx, logger.ContextKeyTaskID, taskID)
			ctx = logger.WithLogger(ctx, l.With(slog.String("task_type", t.Type())))

			err := next.ProcessTask(ctx, t)
			elapsed := time.Since(start)
			m.TaskProcessed(t.Type(), err, elapsed)

			if err != nil {
				l.WarnContext(ctx, "task failed",
					slog.String("type", t.Type()),
					slog.Duration("duration", elapsed),
					slog.Bool("retryable", !errors.Is(err, asynq.SkipRetry)),
					slog.String("error", err.Error()))
				return err
			}
			l.DebugContext(ctx, "task completed",
				slog.String("type", t.Type()),
				slog.Duration("duration", elapsed))
			return nil
		})
	}
}

// ExponentialBackoff doubles the retry delay from one second up to ten minutes
func ExponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsynqLogger adapts slog for asynq
type AsynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger creates an asynq logger writing through l
func NewAsynqLogger(l *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: l.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
