package ports

import "time"

// IntakeObserver receives pipeline timings and best-effort failure signals.
// Implementations must be safe for concurrent use.
type IntakeObserver interface {
	ObserveStructuring(d time.Duration)
	ObserveTranscription(d time.Duration)
	BackupFailed()
	PublishFailed()
}
