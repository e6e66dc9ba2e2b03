package centrifuge

// serverSubscription tracks a subscription the server established on the
// client's behalf (spec.md §3, §4.6 step 7) rather than one created via
// Client.NewSubscription. The client only needs enough state to recover it
// across reconnects; applications observe it through the OnServerXxx
// handlers rather than through a Subscription value.
type serverSubscription struct {
	channel     string
	recoverable bool
	positioned  bool
	offset      uint64
	epoch       string
}

// applyResult updates bookkeeping from the connect reply's per-channel
// SubscribeResult (spec.md §4.6 step 7: server subscriptions are recovered
// inline with connect, not via a separate subscribe command).
func (ss *serverSubscription) applyResult(result *SubscribeResult) {
	ss.recoverable = result.Recoverable
	ss.positioned = result.Positioned
	ss.epoch = result.Epoch
	ss.offset = result.Offset
	if n := len(result.Publications); n > 0 {
		ss.offset = result.Publications[n-1].Offset
	}
}
