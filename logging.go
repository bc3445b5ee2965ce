package webauth

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-webauth/core"
)

func (w *WebAuth) observeFlow(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if w == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	w.recordCounter(ctx, "webauth."+operation+".total", tags)
	w.recordHistogram(ctx, "webauth."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		w.logError(ctx, operation+" failed", contextFields)
		return
	}
	w.logInfo(ctx, operation+" succeeded", contextFields)
}

func (w *WebAuth) logInfo(ctx context.Context, message string, fields map[string]any) {
	w.logWithLevel(ctx, "info", message, fields)
}

func (w *WebAuth) logError(ctx context.Context, message string, fields map[string]any) {
	w.logWithLevel(ctx, "error", message, fields)
}

func (w *WebAuth) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if w == nil || w.logger == nil {
		return
	}
	logger := w.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (w *WebAuth) recordCounter(ctx context.Context, name string, tags map[string]string) {
	if w == nil || w.metrics == nil {
		return
	}
	w.metrics.IncCounter(ctx, strings.TrimSpace(name), 1, cloneTags(tags))
}

func (w *WebAuth) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if w == nil || w.metrics == nil {
		return
	}
	w.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
