package telemetry

import (
	"strings"
	"sync"
)

type Level string

const (
	LevelNameBroken   Level = "broken"
	LevelNameCritical Level = "critical"
	LevelNameWarning  Level = "warning"
	LevelNameInfo     Level = "info"
	LevelNameDebug    Level = "debug"
	LevelNameCount    Level = "count"
)

// Report is a single call made against a Recorder.
type Report struct {
	Level  Level
	ID     string
	Params []any
}

// Recorder is an API that keeps every report in memory so tests can assert on them.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level Level, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Level: level, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.record(LevelNameBroken, id, params)
}

func (r *Recorder) ReportCritical(id string, params ...any) {
	r.record(LevelNameCritical, id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.record(LevelNameWarning, id, params)
}

func (r *Recorder) ReportInfo(msg string, params ...any) {
	r.record(LevelNameInfo, msg, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.record(LevelNameDebug, msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.record(LevelNameCount, id, []any{count})
}

// Reports returns a copy of everything recorded so far.
func (r *Recorder) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Find returns the reports of a level whose id contains the given substring.
// Scoped ids are prefixed with their namespace, so substring matching is enough.
func (r *Recorder) Find(level Level, id string) []Report {
	var out []Report
	for _, report := range r.Reports() {
		if report.Level == level && strings.Contains(report.ID, id) {
			out = append(out, report)
		}
	}
	return out
}
