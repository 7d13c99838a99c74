package sales

import "time"

// Recorder receives checkout events for instrumentation.
type Recorder interface {
	SaleCommitted()
	SaleVoided()
	SaleRejected(reason string)
	ObserveConfirmDuration(duration time.Duration)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) SaleCommitted()                       {}
func (NopRecorder) SaleVoided()                          {}
func (NopRecorder) SaleRejected(string)                  {}
func (NopRecorder) ObserveConfirmDuration(time.Duration) {}
