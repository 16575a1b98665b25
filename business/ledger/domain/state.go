package domain

import "time"

// ConnectionState represents the state of the ledger connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
)

// Gauge maps the state onto the connection-state metric.
func (s ConnectionState) Gauge() int64 {
	if s == StateConnected {
		return 1
	}
	return 0
}

// HealthStatus is a point-in-time view of the failover controller.
type HealthStatus struct {
	State               ConnectionState
	ActiveEndpoint      Endpoint
	ActiveRole          EndpointRole
	Failovers           uint64
	ConsecutiveFailures uint64
	LastProbe           time.Time
	LastError           string
}

// Healthy reports whether the controller holds a live transport.
func (h HealthStatus) Healthy() bool {
	return h.State == StateConnected
}
