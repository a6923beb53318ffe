package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/matching"
)

const (
	FieldJobID      = "job_id"
	FieldWorkerID   = "worker_id"
	FieldCategory   = "category"
	FieldRule       = "rule"
	FieldReason     = "reason"
	FieldDistanceKm = "distance_km"
)

// StringField is a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, skipping blank keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	l = OrNop(l)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// JobFields describes a job posting.
func JobFields(job *matching.JobPosting) []zap.Field {
	if job == nil {
		return nil
	}
	return StringFields(
		StringField{Key: FieldJobID, Value: job.ID},
		StringField{Key: FieldCategory, Value: job.Category},
	)
}

// ResultFields describes a match verdict. Passing verdicts only carry the distance.
func ResultFields(res matching.MatchResult) []zap.Field {
	fields := StringFields(
		StringField{Key: FieldRule, Value: string(res.FailedRule)},
		StringField{Key: FieldReason, Value: res.Explanation},
	)
	if res.HasDistance {
		fields = append(fields, zap.Float64(FieldDistanceKm, res.DistanceKm))
	}
	return fields
}

// ForWorker returns a logger scoped to the worker.
func ForWorker(l *zap.Logger, worker *matching.WorkerProfile) *zap.Logger {
	if worker == nil {
		return OrNop(l)
	}
	return WithFields(l, StringFields(StringField{Key: FieldWorkerID, Value: worker.ID})...)
}
