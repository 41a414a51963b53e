package simulator

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mcdev12/livefeed/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Range is an inclusive integer interval
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// DurationRange is an inclusive interval of delays, drawn at millisecond granularity
type DurationRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// UsersTuning controls the online-users random walk
type UsersTuning struct {
	Initial int           `yaml:"initial"`
	Bounds  Range         `yaml:"bounds"`
	Delta   Range         `yaml:"delta"`
	Delay   DurationRange `yaml:"delay"`
}

// EarningsTuning controls the earnings chart mutation
type EarningsTuning struct {
	Initial          []models.EarningsEntry `yaml:"initial"`
	Floor            int                    `yaml:"floor"`
	MaxEntries       int                    `yaml:"max_entries"`
	UpdateChance     float64                `yaml:"update_chance"`
	Delta            Range                  `yaml:"delta"`
	NewEntrantChance float64                `yaml:"new_entrant_chance"`
	NewEntrantAmount Range                  `yaml:"new_entrant_amount"`
	NamePrefix       string                 `yaml:"name_prefix"`
	NameSuffixLen    int                    `yaml:"name_suffix_len"`
	Delay            DurationRange          `yaml:"delay"`
}

// Tuning holds every knob of the simulation. The defaults reproduce the demo this feed
// was modelled on; none of the numbers carry business meaning.
type Tuning struct {
	Users    UsersTuning    `yaml:"users"`
	Earnings EarningsTuning `yaml:"earnings"`
}

// DefaultTuning returns the stock demo tuning
func DefaultTuning() Tuning {
	return Tuning{
		Users: UsersTuning{
			Initial: 200,
			Bounds:  Range{Min: 200, Max: 2000},
			Delta:   Range{Min: -15, Max: 20},
			Delay:   DurationRange{Min: 500 * time.Millisecond, Max: 3 * time.Second},
		},
		Earnings: EarningsTuning{
			Initial: []models.EarningsEntry{
				{ID: 1, Name: "WIGHT #", Amount: 15000},
				{ID: 2, Name: "Merr**RSY", Amount: 11000},
				{ID: 3, Name: "Merr**IUC", Amount: 10000},
				{ID: 4, Name: "Merr**CPF", Amount: 10000},
				{ID: 5, Name: "Merr**BGX", Amount: 6000},
				{ID: 6, Name: "Merr**O9L", Amount: 10000},
				{ID: 7, Name: "Man****av", Amount: 3000},
			},
			Floor:            1000,
			MaxEntries:       10,
			UpdateChance:     0.3,
			Delta:            Range{Min: -500, Max: 1000},
			NewEntrantChance: 0.1,
			NewEntrantAmount: Range{Min: 2000, Max: 15000},
			NamePrefix:       "User****",
			NameSuffixLen:    4,
			Delay:            DurationRange{Min: 5 * time.Second, Max: 15 * time.Second},
		},
	}
}

// LoadTuning reads a YAML tuning file on top of the defaults, so a file only needs the
// keys it wants to change
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning file: %w", err)
	}

	if err := tuning.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}

	return tuning, nil
}

// Validate checks that every range is well formed and that the initial chart respects the floor
func (t Tuning) Validate() error {
	var errs []error

	checkRange := func(name string, r Range) {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: min %d is greater than max %d", name, r.Min, r.Max))
		}
	}
	checkDelay := func(name string, d DurationRange) {
		if d.Min <= 0 {
			errs = append(errs, fmt.Errorf("%s: min delay must be positive", name))
		}
		if d.Min > d.Max {
			errs = append(errs, fmt.Errorf("%s: min delay %s is greater than max %s", name, d.Min, d.Max))
		}
	}
	checkChance := func(name string, p float64) {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s: probability %v is outside [0, 1]", name, p))
		}
	}

	checkRange("users.bounds", t.Users.Bounds)
	checkRange("users.delta", t.Users.Delta)
	checkDelay("users.delay", t.Users.Delay)

	e := t.Earnings
	checkRange("earnings.delta", e.Delta)
	checkRange("earnings.new_entrant_amount", e.NewEntrantAmount)
	checkDelay("earnings.delay", e.Delay)
	checkChance("earnings.update_chance", e.UpdateChance)
	checkChance("earnings.new_entrant_chance", e.NewEntrantChance)

	if e.MaxEntries <= 0 {
		errs = append(errs, errors.New("earnings.max_entries must be positive"))
	}
	if e.NameSuffixLen < 0 {
		errs = append(errs, errors.New("earnings.name_suffix_len must not be negative"))
	}
	if e.NewEntrantAmount.Min < e.Floor {
		errs = append(errs, fmt.Errorf("earnings.new_entrant_amount: min %d is below floor %d", e.NewEntrantAmount.Min, e.Floor))
	}
	for _, entry := range e.Initial {
		if entry.Amount < e.Floor {
			errs = append(errs, fmt.Errorf("earnings.initial: entry %d amount %d is below floor %d", entry.ID, entry.Amount, e.Floor))
		}
	}

	return errors.Join(errs...)
}
