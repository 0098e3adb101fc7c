package core

// EventKind identifies what happened in an Event.
type EventKind int

const (
	EventProbe EventKind = iota
	EventSourceSkipped
	EventResolved
	EventLicenseWarning
	EventChecksumRetry
	EventChecksumFailed
	EventFileTransferred
	EventTransferFailed
	EventRollback
	EventCleanupFailed
	EventDependency
	EventExternalDependency
	EventExternalFailed
	EventLauncherRegistered
	EventLauncherRemoved
	EventBackup
	EventRestore
	EventUpToDate
	EventInstalled
	EventUpdated
	EventUninstalled
	EventCancelled
)

var eventNames = [...]string{
	EventProbe:              "probe",
	EventSourceSkipped:      "source_skipped",
	EventResolved:           "resolved",
	EventLicenseWarning:     "license_warning",
	EventChecksumRetry:      "checksum_retry",
	EventChecksumFailed:     "checksum_failed",
	EventFileTransferred:    "file_transferred",
	EventTransferFailed:     "transfer_failed",
	EventRollback:           "rollback",
	EventCleanupFailed:      "cleanup_failed",
	EventDependency:         "dependency",
	EventExternalDependency: "external_dependency",
	EventExternalFailed:     "external_failed",
	EventLauncherRegistered: "launcher_registered",
	EventLauncherRemoved:    "launcher_removed",
	EventBackup:             "backup",
	EventRestore:            "restore",
	EventUpToDate:           "up_to_date",
	EventInstalled:          "installed",
	EventUpdated:            "updated",
	EventUninstalled:        "uninstalled",
	EventCancelled:          "cancelled",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a structured progress or diagnostic record. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Package  string
	File     string
	Source   string
	Attempt  int
	Expected string
	Got      string
	Message  string
	Err      error
}

// Reporter receives events. Implementations must not block for long; the
// engine calls Report synchronously.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Report(Event) {}
