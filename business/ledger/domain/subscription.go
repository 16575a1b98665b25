package domain

// SubscriptionEntry maps a contract event onto the name it is emitted under.
type SubscriptionEntry struct {
	RemoteEvent string
	OutputEvent string
}

// SubscriptionSpec is the fixed set of contract events the gateway listens to.
type SubscriptionSpec []SubscriptionEntry

var contentSubscriptions = SubscriptionSpec{
	{RemoteEvent: "DesignLog", OutputEvent: EventDesign},
	{RemoteEvent: "MintLog", OutputEvent: EventMint},
	{RemoteEvent: "TransferLog", OutputEvent: EventTransferObject},
}

// ContentSubscriptions returns a copy of the ContentNFT subscription set.
func ContentSubscriptions() SubscriptionSpec {
	out := make(SubscriptionSpec, len(contentSubscriptions))
	copy(out, contentSubscriptions)
	return out
}

// OutputNames lists the output event names in order.
func (s SubscriptionSpec) OutputNames() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.OutputEvent
	}
	return names
}
