package strategy

// Signal is the outcome of evaluating a strategy against recent bars.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Decision carries the signal plus a human-readable reason naming the
// strategy and the condition that triggered it. HOLD decisions are a normal
// value, never an error.
type Decision struct {
	Signal Signal
	Reason string
}

// Hold is the neutral decision with an explanatory reason.
func Hold(reason string) Decision {
	return Decision{Signal: SignalHold, Reason: reason}
}

// Actionable reports whether the decision should produce a trade.
func (d Decision) Actionable() bool {
	return d.Signal == SignalBuy || d.Signal == SignalSell
}
