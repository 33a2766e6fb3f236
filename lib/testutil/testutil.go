package testutil

import (
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"teepee-scraper/internal/components/telemetry"

	_ "modernc.org/sqlite"
)

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Telemetry returns a telemetry API that logs everything, redacted, to the
// test's output.
func Telemetry(t testing.TB) telemetry.API {
	logger := slog.New(telemetry.NewRedactingHandler(
		slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	return telemetry.SlogAPI{Logger: logger}
}

type Report struct {
	Kind   string
	Id     string
	Params []any
}

// Recorder is a telemetry API that remembers what was reported so tests can
// assert on it, every report is also forwarded to Inner when set.
type Recorder struct {
	Inner telemetry.API

	mutex   sync.Mutex
	reports []Report
}

func NewRecorder(t testing.TB) *Recorder {
	return &Recorder{Inner: Telemetry(t)}
}

func (r *Recorder) add(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
	if r.Inner != nil {
		r.Inner.ReportBroken(id, params...)
	}
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
	if r.Inner != nil {
		r.Inner.ReportWarning(id, params...)
	}
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	if r.Inner != nil {
		r.Inner.ReportDebug(msg, params...)
	}
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
	if r.Inner != nil {
		r.Inner.ReportCount(id, count)
	}
}

// Reports returns the reports of the given kind ("broken", "warning" or
// "count") whose id contains substr.
func (r *Recorder) Reports(kind, substr string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.Contains(report.Id, substr) {
			out = append(out, report)
		}
	}
	return out
}

// OpenDB opens an in-memory sqlite database that is closed when the test
// ends.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
