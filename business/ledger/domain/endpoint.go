// Package domain contains the core domain types for the ledger context.
package domain

import (
	"errors"
	"strings"
)

// Endpoint is a websocket URL of a ledger node.
type Endpoint string

// EndpointRole names which side of the pair is active.
type EndpointRole string

const (
	RolePrimary   EndpointRole = "primary"
	RoleSecondary EndpointRole = "secondary"
)

// ErrNoPrimaryEndpoint is returned when the pair has no primary URL.
var ErrNoPrimaryEndpoint = errors.New("primary endpoint is required")

// EndpointPair is the immutable primary/secondary endpoint configuration.
type EndpointPair struct {
	primary   Endpoint
	secondary Endpoint
}

// NewEndpointPair builds a pair. An empty secondary resolves to the
// primary, so failover then simply redials the same node.
func NewEndpointPair(primary, secondary string) (EndpointPair, error) {
	primary = strings.TrimSpace(primary)
	secondary = strings.TrimSpace(secondary)

	if primary == "" {
		return EndpointPair{}, ErrNoPrimaryEndpoint
	}
	if secondary == "" {
		secondary = primary
	}

	return EndpointPair{
		primary:   Endpoint(primary),
		secondary: Endpoint(secondary),
	}, nil
}

// Primary returns the primary endpoint.
func (p EndpointPair) Primary() Endpoint { return p.primary }

// Secondary returns the secondary endpoint.
func (p EndpointPair) Secondary() Endpoint { return p.secondary }

// Selector tracks which endpoint of a pair is in use. It can only ever
// point at one of the two configured endpoints. Not safe for concurrent
// use; the owner serializes access.
type Selector struct {
	pair        EndpointPair
	onSecondary bool
}

// NewSelector returns a selector pointing at the primary.
func NewSelector(pair EndpointPair) *Selector {
	return &Selector{pair: pair}
}

// Active returns the selected endpoint.
func (s *Selector) Active() Endpoint {
	if s.onSecondary {
		return s.pair.secondary
	}
	return s.pair.primary
}

// Role returns the role of the selected endpoint.
func (s *Selector) Role() EndpointRole {
	if s.onSecondary {
		return RoleSecondary
	}
	return RolePrimary
}

// Flip switches to the other endpoint and returns it.
func (s *Selector) Flip() Endpoint {
	s.onSecondary = !s.onSecondary
	return s.Active()
}

// Pair returns the configured pair.
func (s *Selector) Pair() EndpointPair {
	return s.pair
}
