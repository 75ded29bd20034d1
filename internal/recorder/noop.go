package recorder

import "PeakWatch/internal/model"

// NoopRecorder discards reports; used for dry runs.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReport(_ *model.Report) error { return nil }
func (n *NoopRecorder) Close() error                       { return nil }
