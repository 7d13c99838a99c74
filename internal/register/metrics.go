package register

import "github.com/registra-pos/registra-backend/pkg/enums"

// Recorder receives register lifecycle events for instrumentation.
type Recorder interface {
	SessionClosed(classification enums.BalanceClassification)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) SessionClosed(enums.BalanceClassification) {}
