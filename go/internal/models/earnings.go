package models

// EarningsEntry represents one row of the ranked earnings chart
type EarningsEntry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"` // Partially masked display label
	Amount int    `json:"amount"`
}

// EarningsBoard is the ranked earnings chart, highest amount first
type EarningsBoard []EarningsEntry

// Clone returns a copy that is safe to hand to other goroutines
func (b EarningsBoard) Clone() EarningsBoard {
	if b == nil {
		return EarningsBoard{}
	}
	out := make(EarningsBoard, len(b))
	copy(out, b)
	return out
}
