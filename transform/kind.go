package transform

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownKind = errors.New("unknown transform")
	ErrNo4QMapping = errors.New("transform has no four-quarter counterpart")
)

// Kind identifies one transform of the closed set a variable can be assigned.
type Kind int

const (
	Identity Kind = iota
	AnnualToQuarter
	QuarterToAnnual
	QuarterToAnnualPercent
	LogGrowthToPct
	LogGrowthToPctPerCapita
	LogLevelToPct
	LogLevelToPctPerCapita
	LogGrowthToPct4Q
	LogGrowthToPct4QPerCapita
	LogLevelToPct4Q
	LogLevelToPct4QPerCapita

	numKinds
)

// Requirement flags the auxiliary inputs a transform needs.
type Requirement uint8

const (
	RequiresY0 Requirement = 1 << iota
	RequiresPrior
	RequiresPopulation
)

// Aux carries the auxiliary inputs of a transform. Absent values are nil.
type Aux struct {
	// Y0 is the last known level before the first period.
	Y0 *float64
	// Prior holds the quarters preceding the first period for 4q transforms.
	Prior []float64
	// Population is per-period population log growth, one value per period.
	Population []float64
	// PopulationPrior holds the population growth of the quarters preceding
	// the first period, needed by 4q per-capita transforms.
	PopulationPrior []float64
}

// Spec describes a transform kind: its name, required inputs, lookback and
// four-quarter counterpart.
type Spec struct {
	Name        string
	Requires    Requirement
	Lookback    int
	FourQuarter Kind
	Has4Q       bool

	apply func(y mat.Matrix, aux Aux) (*mat.Dense, error)
}

func (s Spec) NeedsPopulation() bool {
	return s.Requires&RequiresPopulation != 0
}

func (s Spec) NeedsY0() bool {
	return s.Requires&RequiresY0 != 0
}

func (s Spec) NeedsPrior() bool {
	return s.Requires&RequiresPrior != 0
}

var registry = [numKinds]Spec{
	Identity: {
		Name: "identity", FourQuarter: Identity, Has4Q: true,
		apply: func(y mat.Matrix, _ Aux) (*mat.Dense, error) { return Passthrough(y) },
	},
	AnnualToQuarter: {
		Name:  "annualtoquarter",
		apply: func(y mat.Matrix, _ Aux) (*mat.Dense, error) { return AnnualToQuarterly(y) },
	},
	QuarterToAnnual: {
		Name: "quartertoannual", FourQuarter: QuarterToAnnual, Has4Q: true,
		apply: func(y mat.Matrix, _ Aux) (*mat.Dense, error) { return QuarterlyToAnnual(y) },
	},
	QuarterToAnnualPercent: {
		Name: "quartertoannualpercent", FourQuarter: QuarterToAnnualPercent, Has4Q: true,
		apply: func(y mat.Matrix, _ Aux) (*mat.Dense, error) { return QuarterlyToAnnualPercent(y) },
	},
	LogGrowthToPct: {
		Name: "loggrowthtopct_annualized", FourQuarter: LogGrowthToPct4Q, Has4Q: true,
		apply: func(y mat.Matrix, _ Aux) (*mat.Dense, error) { return LogGrowthAnnualized(y) },
	},
	LogGrowthToPctPerCapita: {
		Name: "loggrowthtopct_annualized_percapita", Requires: RequiresPopulation,
		FourQuarter: LogGrowthToPct4QPerCapita, Has4Q: true,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) {
			return LogGrowthAnnualizedPerCapita(y, aux.Population)
		},
	},
	LogLevelToPct: {
		Name: "logleveltopct_annualized", Requires: RequiresY0,
		FourQuarter: LogLevelToPct4Q, Has4Q: true,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) { return LogLevelAnnualized(y, *aux.Y0) },
	},
	LogLevelToPctPerCapita: {
		Name: "logleveltopct_annualized_percapita", Requires: RequiresY0 | RequiresPopulation,
		FourQuarter: LogLevelToPct4QPerCapita, Has4Q: true,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) {
			return LogLevelAnnualizedPerCapita(y, *aux.Y0, aux.Population)
		},
	},
	LogGrowthToPct4Q: {
		Name: "loggrowthtopct_4q", Requires: RequiresPrior, Lookback: GrowthLookback,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) { return LogGrowth4Q(y, aux.Prior) },
	},
	LogGrowthToPct4QPerCapita: {
		Name: "loggrowthtopct_4q_percapita", Requires: RequiresPrior | RequiresPopulation, Lookback: GrowthLookback,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) {
			return LogGrowth4QPerCapita(y, aux.Prior, aux.Population, aux.PopulationPrior)
		},
	},
	LogLevelToPct4Q: {
		Name: "logleveltopct_4q", Requires: RequiresPrior, Lookback: LevelLookback,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) { return LogLevel4Q(y, aux.Prior) },
	},
	LogLevelToPct4QPerCapita: {
		Name: "logleveltopct_4q_percapita", Requires: RequiresPrior | RequiresPopulation, Lookback: LevelLookback,
		apply: func(y mat.Matrix, aux Aux) (*mat.Dense, error) {
			return LogLevel4QPerCapita(y, aux.Prior, aux.Population, aux.PopulationPrior)
		},
	},
}

func init() {
	for k, s := range registry {
		if s.apply == nil || s.Name == "" {
			panic(fmt.Sprintf("transform kind %d is not registered", k))
		}
	}
}

func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// Spec returns the registry entry for the kind.
func (k Kind) Spec() (Spec, error) {
	if !k.Valid() {
		return Spec{}, fmt.Errorf("%d, %w", int(k), ErrUnknownKind)
	}
	return registry[k], nil
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return registry[k].Name
}

// FourQuarter returns the four-quarter counterpart of the kind.
func (k Kind) FourQuarter() (Kind, error) {
	s, err := k.Spec()
	if err != nil {
		return 0, err
	}
	if !s.Has4Q {
		return 0, fmt.Errorf("%s, %w", s.Name, ErrNo4QMapping)
	}
	return s.FourQuarter, nil
}

// IsPerCapita reports whether the kind needs population growth.
func (k Kind) IsPerCapita() bool {
	return k.Valid() && registry[k].NeedsPopulation()
}

// ParseKind looks up a kind by its name.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range registry {
		if s.Name == n {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownKind)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%d, %w", int(k), ErrUnknownKind)
	}
	return []byte(registry[k].Name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Check verifies that aux carries every input the kind requires, without
// doing any arithmetic.
func Check(k Kind, aux Aux) error {
	s, err := k.Spec()
	if err != nil {
		return err
	}
	if s.NeedsPopulation() {
		if len(aux.Population) == 0 {
			return fmt.Errorf("%s, %w", s.Name, ErrMissingPopulation)
		}
		if s.NeedsPrior() && len(aux.PopulationPrior) == 0 {
			return fmt.Errorf("%s prior quarters, %w", s.Name, ErrMissingPopulation)
		}
	}
	if s.NeedsY0() && aux.Y0 == nil {
		return fmt.Errorf("%s, %w", s.Name, ErrMissingY0)
	}
	if s.NeedsPrior() {
		if err := checkLookback(aux.Prior, s.Lookback); err != nil {
			return fmt.Errorf("%s, %w", s.Name, err)
		}
	}
	return nil
}

// Apply runs the transform of kind k over the draws matrix y.
func Apply(k Kind, y mat.Matrix, aux Aux) (*mat.Dense, error) {
	if err := Check(k, aux); err != nil {
		return nil, err
	}
	out, err := registry[k].apply(y, aux)
	if err != nil {
		return nil, fmt.Errorf("%s, %w", registry[k].Name, err)
	}
	return out, nil
}
