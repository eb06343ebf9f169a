package metrics

import "time"

// PipelineObserver adapts IntakeMetrics to the intake pipeline's observer
// contract so the core packages stay free of prometheus imports.
type PipelineObserver struct {
	metrics *IntakeMetrics
	service string
}

func NewPipelineObserver(m *IntakeMetrics, service string) *PipelineObserver {
	return &PipelineObserver{metrics: m, service: service}
}

func (o *PipelineObserver) ObserveStructuring(d time.Duration) {
	o.metrics.RecordStructuringDuration(o.service, d)
}

func (o *PipelineObserver) ObserveTranscription(d time.Duration) {
	o.metrics.RecordTranscriptionDuration(o.service, d)
}

func (o *PipelineObserver) BackupFailed() {
	o.metrics.RecordBackupFailure()
}

func (o *PipelineObserver) PublishFailed() {
	o.metrics.RecordPublishFailure()
}
