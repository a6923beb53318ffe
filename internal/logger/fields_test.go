package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/shiftmatch/internal/matching"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  job_id  ", Value: "  j1  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != "job_id" || fields[0].String != "j1" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field foo=bar, got %v", entries[0].ContextMap())
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("another log")
}

func TestResultFields(t *testing.T) {
	failed := ResultFields(matching.MatchResult{
		FailedRule:  matching.RuleOutOfRadius,
		Explanation: "job is 12.0 km away",
		DistanceKm:  12,
		HasDistance: true,
	})
	if len(failed) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(failed))
	}
	if failed[0].Key != FieldRule || failed[0].String != "out_of_radius" {
		t.Fatalf("unexpected rule field: %+v", failed[0])
	}

	passed := ResultFields(matching.MatchResult{IsMatch: true})
	if len(passed) != 0 {
		t.Fatalf("expected no fields for passing verdict without distance, got %d", len(passed))
	}
}

func TestForWorkerAndJobFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)

	job := &matching.JobPosting{ID: "j7", Category: "security"}
	ForWorker(zap.New(core), &matching.WorkerProfile{ID: "w3"}).Debug("evaluated", JobFields(job)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldWorkerID] != "w3" || ctx[FieldJobID] != "j7" || ctx[FieldCategory] != "security" {
		t.Fatalf("unexpected context: %v", ctx)
	}

	if JobFields(nil) != nil {
		t.Fatalf("expected nil fields for nil job")
	}
	ForWorker(nil, nil).Info("no panic")
}
