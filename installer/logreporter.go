package installer

import (
	"github.com/charmbracelet/log"

	"github.com/git-pkgs/paxd/internal/core"
)

// LogReporter writes events to a charmbracelet logger. Progress goes to
// Info, per-file detail to Debug, retries and rollbacks to Warn and
// failures to Error.
type LogReporter struct {
	Logger *log.Logger
}

// NewLogReporter wraps logger. A nil logger uses the package default.
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) Report(e core.Event) {
	kv := eventFields(e)
	msg := e.Kind.String()

	switch e.Kind {
	case core.EventProbe, core.EventSourceSkipped, core.EventFileTransferred, core.EventBackup:
		r.Logger.Debug(msg, kv...)
	case core.EventLicenseWarning, core.EventChecksumRetry, core.EventRollback, core.EventRestore,
		core.EventExternalFailed, core.EventCancelled:
		r.Logger.Warn(msg, kv...)
	case core.EventChecksumFailed, core.EventTransferFailed, core.EventCleanupFailed:
		r.Logger.Error(msg, kv...)
	default:
		r.Logger.Info(msg, kv...)
	}
}

func eventFields(e core.Event) []any {
	var kv []any
	add := func(key, value string) {
		if value != "" {
			kv = append(kv, key, value)
		}
	}
	add("package", e.Package)
	add("file", e.File)
	add("source", e.Source)
	if e.Kind == core.EventChecksumRetry || e.Kind == core.EventChecksumFailed {
		kv = append(kv, "attempt", e.Attempt)
	}
	add("expected", e.Expected)
	add("got", e.Got)
	add("msg", e.Message)
	if e.Err != nil {
		kv = append(kv, "err", e.Err)
	}
	return kv
}
