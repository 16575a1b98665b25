package ui

import (
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
)

// Message types for TUI updates

// StatusMsg carries a snapshot of the failover controller.
type StatusMsg struct {
	Status domain.HealthStatus
}

// EventMsg is sent for every contract event delivered to the gateway.
type EventMsg struct {
	Event domain.Event
}

// DeliveryMsg carries the emitter counters.
type DeliveryMsg struct {
	Emitted uint64
	Dropped uint64
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}
