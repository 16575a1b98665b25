package domain

import "github.com/ethereum/go-ethereum/common"

// Output event names delivered to listeners.
const (
	EventDesign         = "Design"
	EventMint           = "Mint"
	EventTransferObject = "TransferObject"
)

// Event is a decoded contract log re-emitted under its output name.
// Fields holds every event argument, indexed and non-indexed, keyed by
// its ABI name.
type Event struct {
	Name        string
	Fields      map[string]any
	Contract    common.Address
	TxHash      common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	LogIndex    uint
	Removed     bool
}

// Field returns a named argument.
func (e Event) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// RawEvent is a log as delivered by the node before it is given an
// output name.
type RawEvent struct {
	RemoteName  string
	Fields      map[string]any
	Contract    common.Address
	TxHash      common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	LogIndex    uint
	Removed     bool
}

// As renames a raw event for delivery.
func (r RawEvent) As(outputName string) Event {
	return Event{
		Name:        outputName,
		Fields:      r.Fields,
		Contract:    r.Contract,
		TxHash:      r.TxHash,
		BlockNumber: r.BlockNumber,
		BlockHash:   r.BlockHash,
		LogIndex:    r.LogIndex,
		Removed:     r.Removed,
	}
}
