package engine

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Tier is one sales bracket of the commission policy. Brackets are
// inclusive on both ends; Unbounded marks the open-ended last bracket.
type Tier struct {
	Min           decimal.Decimal `json:"min"`
	Max           decimal.Decimal `json:"max"`
	Unbounded     bool            `json:"unbounded"`
	RepeatRate    decimal.Decimal `json:"repeat_rate"`
	NewRate       decimal.Decimal `json:"new_rate"`
	IncentiveRate decimal.Decimal `json:"incentive_rate"`
	Bonus         decimal.Decimal `json:"bonus"`
}

// Policy is the tier table plus the optional flat incentive override.
// When the override is set it replaces the tier incentive rate for every
// incentive-classed transaction.
type Policy struct {
	Tiers             []Tier
	IncentiveOverride *decimal.Decimal
}

// SummaryWindow bounds the magnitude heuristic used when the summary
// sheet carries no labeled commission total at all.
type SummaryWindow struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Config bundles everything the reconciliation engine needs per run.
type Config struct {
	Policy Policy
	Window SummaryWindow
}

var centStep = decimal.New(1, -2)

// DefaultConfig returns the built-in payout policy. The tier table and
// the fallback window mirror the current commission agreement.
func DefaultConfig() Config {
	return Config{
		Policy: Policy{
			Tiers: []Tier{
				{
					Min:           decimal.Zero,
					Max:           decimal.New(999999, -2),
					RepeatRate:    decimal.New(2, -2),
					NewRate:       decimal.New(3, -2),
					IncentiveRate: decimal.New(3, -2),
					Bonus:         decimal.Zero,
				},
				{
					Min:           decimal.New(10000, 0),
					Max:           decimal.New(4999999, -2),
					RepeatRate:    decimal.New(1, -2),
					NewRate:       decimal.New(2, -2),
					IncentiveRate: decimal.New(3, -2),
					Bonus:         decimal.New(100, 0),
				},
				{
					Min:           decimal.New(50000, 0),
					Unbounded:     true,
					RepeatRate:    decimal.New(5, -3),
					NewRate:       decimal.New(15, -3),
					IncentiveRate: decimal.New(3, -2),
					Bonus:         decimal.New(300, 0),
				},
			},
		},
		Window: SummaryWindow{
			Min: decimal.New(100, 0),
			Max: decimal.New(10000, 0),
		},
	}
}

type tierFile struct {
	Min           float64  `yaml:"min"`
	Max           *float64 `yaml:"max"`
	RepeatRate    float64  `yaml:"repeat_rate"`
	NewRate       float64  `yaml:"new_rate"`
	IncentiveRate float64  `yaml:"incentive_rate"`
	Bonus         float64  `yaml:"bonus"`
}

type configFile struct {
	Policy struct {
		IncentiveRateOverride *float64   `yaml:"incentive_rate_override"`
		Tiers                 []tierFile `yaml:"tiers"`
	} `yaml:"policy"`
	Summary struct {
		FallbackMin *float64 `yaml:"fallback_min"`
		FallbackMax *float64 `yaml:"fallback_max"`
	} `yaml:"summary"`
}

// LoadConfig reads a policy override file and validates it. A tier with
// no max is the open-ended bracket and must come last.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read policy file %s: %w", path, err)
	}
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Config{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if len(f.Policy.Tiers) > 0 {
		tiers := make([]Tier, 0, len(f.Policy.Tiers))
		for _, t := range f.Policy.Tiers {
			tier := Tier{
				Min:           decimal.NewFromFloat(t.Min),
				RepeatRate:    decimal.NewFromFloat(t.RepeatRate),
				NewRate:       decimal.NewFromFloat(t.NewRate),
				IncentiveRate: decimal.NewFromFloat(t.IncentiveRate),
				Bonus:         decimal.NewFromFloat(t.Bonus),
			}
			if t.Max != nil {
				tier.Max = decimal.NewFromFloat(*t.Max)
			} else {
				tier.Unbounded = true
			}
			tiers = append(tiers, tier)
		}
		cfg.Policy.Tiers = tiers
	}
	if f.Policy.IncentiveRateOverride != nil {
		d := decimal.NewFromFloat(*f.Policy.IncentiveRateOverride)
		cfg.Policy.IncentiveOverride = &d
	}
	if f.Summary.FallbackMin != nil {
		cfg.Window.Min = decimal.NewFromFloat(*f.Summary.FallbackMin)
	}
	if f.Summary.FallbackMax != nil {
		cfg.Window.Max = decimal.NewFromFloat(*f.Summary.FallbackMax)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("policy file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects tier tables with gaps, overlaps or open middles so
// every non-negative sales total lands in exactly one tier. Adjacent
// tiers must meet at cent granularity (next min = prior max + 0.01).
func (c Config) Validate() error {
	tiers := c.Policy.Tiers
	if len(tiers) == 0 {
		return fmt.Errorf("policy has no tiers")
	}
	if !tiers[0].Min.IsZero() {
		return fmt.Errorf("first tier must start at 0, got %s", tiers[0].Min)
	}
	for i, t := range tiers {
		last := i == len(tiers)-1
		if t.Unbounded && !last {
			return fmt.Errorf("tier %d has no max but is not the last tier", i+1)
		}
		if last && !t.Unbounded {
			return fmt.Errorf("last tier must be open-ended, got max %s", t.Max)
		}
		if !t.Unbounded && t.Max.LessThan(t.Min) {
			return fmt.Errorf("tier %d max %s is below min %s", i+1, t.Max, t.Min)
		}
		if i > 0 {
			want := tiers[i-1].Max.Add(centStep)
			if !t.Min.Equal(want) {
				return fmt.Errorf("tier %d starts at %s, expected %s after prior max %s", i+1, t.Min, want, tiers[i-1].Max)
			}
		}
		for _, r := range []decimal.Decimal{t.RepeatRate, t.NewRate, t.IncentiveRate} {
			if r.IsNegative() || r.GreaterThan(decimal.New(1, 0)) {
				return fmt.Errorf("tier %d has rate %s outside [0,1]", i+1, r)
			}
		}
		if t.Bonus.IsNegative() {
			return fmt.Errorf("tier %d has negative bonus %s", i+1, t.Bonus)
		}
	}
	if c.Policy.IncentiveOverride != nil {
		o := *c.Policy.IncentiveOverride
		if o.IsNegative() || o.GreaterThan(decimal.New(1, 0)) {
			return fmt.Errorf("incentive override %s outside [0,1]", o)
		}
	}
	if c.Window.Min.IsNegative() || c.Window.Max.LessThan(c.Window.Min) {
		return fmt.Errorf("summary fallback window [%s,%s] is inverted", c.Window.Min, c.Window.Max)
	}
	return nil
}

// TierFor resolves the bracket a region's total sales falls into. A
// validated policy covers every non-negative amount, so the last tier
// catches anything past the bounded brackets.
func (p Policy) TierFor(totalSales decimal.Decimal) (int, Tier) {
	if len(p.Tiers) == 0 {
		panic("engine: policy has no tiers")
	}
	for i, t := range p.Tiers {
		if totalSales.GreaterThanOrEqual(t.Min) && (t.Unbounded || totalSales.LessThanOrEqual(t.Max)) {
			return i, t
		}
	}
	last := len(p.Tiers) - 1
	return last, p.Tiers[last]
}

// RateFor picks the per-class rate off a tier, honouring the incentive
// override when one is configured.
func (p Policy) RateFor(t Tier, class ProductClass) decimal.Decimal {
	switch class {
	case ClassIncentive:
		if p.IncentiveOverride != nil {
			return *p.IncentiveOverride
		}
		return t.IncentiveRate
	case ClassNew:
		return t.NewRate
	default:
		return t.RepeatRate
	}
}
