package simulator

import (
	"cmp"
	"slices"

	"github.com/mcdev12/livefeed/go/internal/models"
)

// State is the simulated feed: the online-users counter and the ranked earnings chart.
// It is not safe for concurrent use; the engine confines it to its event loop.
type State struct {
	tuning      Tuning
	rng         Source
	onlineUsers int
	earnings    models.EarningsBoard
	nextID      int
}

// NewState builds the initial state from the tuning. The initial chart is ranked
// immediately so the first broadcast already satisfies the ordering invariant.
func NewState(tuning Tuning, rng Source) *State {
	s := &State{
		tuning:   tuning,
		rng:      rng,
		earnings: models.EarningsBoard(tuning.Earnings.Initial).Clone(),
	}
	s.onlineUsers = ClampUsers(tuning.Users.Initial, tuning.Users.Bounds)

	for _, entry := range s.earnings {
		if entry.ID >= s.nextID {
			s.nextID = entry.ID + 1
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}

	s.earnings = Rank(s.earnings, tuning.Earnings.MaxEntries)
	return s
}

// Tuning returns the tuning the state was built with
func (s *State) Tuning() Tuning {
	return s.tuning
}

// OnlineUsers returns the current online-users count
func (s *State) OnlineUsers() int {
	return s.onlineUsers
}

// SetOnlineUsers overrides the count, clamped into bounds
func (s *State) SetOnlineUsers(count int) {
	s.onlineUsers = ClampUsers(count, s.tuning.Users.Bounds)
}

// Earnings returns a copy of the ranked chart
func (s *State) Earnings() models.EarningsBoard {
	return s.earnings.Clone()
}

// ApplyUserDelta adds delta to the count and clamps the result
func (s *State) ApplyUserDelta(delta int) int {
	s.onlineUsers = ClampUsers(s.onlineUsers+delta, s.tuning.Users.Bounds)
	return s.onlineUsers
}

// TickUsers performs one random-walk step of the online-users counter
func (s *State) TickUsers() int {
	return s.ApplyUserDelta(IntBetween(s.rng, s.tuning.Users.Delta))
}

// TickEarnings performs one mutation round of the chart: random per-entry drift, an
// occasional new entrant, then re-ranking
func (s *State) TickEarnings() models.EarningsBoard {
	cfg := s.tuning.Earnings

	for i := range s.earnings {
		if Chance(s.rng, cfg.UpdateChance) {
			s.earnings[i].Amount = max(cfg.Floor, s.earnings[i].Amount+IntBetween(s.rng, cfg.Delta))
		}
	}

	if Chance(s.rng, cfg.NewEntrantChance) {
		s.appendEntry(
			MaskedName(s.rng, cfg.NamePrefix, cfg.NameSuffixLen),
			IntBetween(s.rng, cfg.NewEntrantAmount),
		)
	}

	s.earnings = Rank(s.earnings, cfg.MaxEntries)
	return s.Earnings()
}

// AddEntrant appends an entry and re-ranks the chart. The amount is floored like any other
// mutation.
func (s *State) AddEntrant(name string, amount int) models.EarningsBoard {
	s.appendEntry(name, amount)
	s.earnings = Rank(s.earnings, s.tuning.Earnings.MaxEntries)
	return s.Earnings()
}

func (s *State) appendEntry(name string, amount int) {
	s.earnings = append(s.earnings, models.EarningsEntry{
		ID:     s.nextID,
		Name:   name,
		Amount: max(s.tuning.Earnings.Floor, amount),
	})
	s.nextID++
}

// ClampUsers pins count into bounds
func ClampUsers(count int, bounds Range) int {
	return max(bounds.Min, min(bounds.Max, count))
}

// Rank sorts the chart by amount, highest first, keeping insertion order among ties, and
// drops everything past limit
func Rank(board models.EarningsBoard, limit int) models.EarningsBoard {
	slices.SortStableFunc(board, func(a, b models.EarningsEntry) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	if len(board) > limit {
		board = board[:limit]
	}
	return board
}
