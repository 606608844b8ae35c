package meansbands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aouyang1/go-meansbands/population"
)

var (
	ErrUnknownProduct   = errors.New("unknown product")
	ErrUnknownClass     = errors.New("unknown class")
	ErrUnknownOutputVar = errors.New("unknown output variable")
)

// Class is the kind of variable being reported.
type Class int

const (
	Observable Class = iota
	PseudoObservable
)

var classNames = map[Class]string{
	Observable:       "observable",
	PseudoObservable: "pseudo-observable",
}

// classSuffix is the abbreviation used in output variable names e.g. forecastobs.
var classSuffix = map[Class]string{
	Observable:       "obs",
	PseudoObservable: "pseudo",
}

func (c Class) String() string {
	if name, exists := classNames[c]; exists {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

func ParseClass(name string) (Class, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, cn := range classNames {
		if cn == n || classSuffix[c] == n {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownClass)
}

func (c Class) MarshalText() ([]byte, error) {
	name, exists := classNames[c]
	if !exists {
		return nil, fmt.Errorf("%d, %w", int(c), ErrUnknownClass)
	}
	return []byte(name), nil
}

func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Product is one kind of model output to summarize.
type Product int

const (
	History Product = iota
	Forecast
	History4Q
	Forecast4Q
	Trend
	DetTrend
	ShockDec
)

var productNames = map[Product]string{
	History:    "history",
	Forecast:   "forecast",
	History4Q:  "history4q",
	Forecast4Q: "forecast4q",
	Trend:      "trend",
	DetTrend:   "dettrend",
	ShockDec:   "shockdec",
}

// productPrefix is the abbreviation used in output variable names e.g. hist4qobs.
var productPrefix = map[Product]string{
	History:    "hist",
	Forecast:   "forecast",
	History4Q:  "hist4q",
	Forecast4Q: "forecast4q",
	Trend:      "trend",
	DetTrend:   "dettrend",
	ShockDec:   "shockdec",
}

func (p Product) String() string {
	if name, exists := productNames[p]; exists {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(p))
}

func ParseProduct(name string) (Product, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for p, pn := range productNames {
		if pn == n || productPrefix[p] == n {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%q, %w", name, ErrUnknownProduct)
}

func (p Product) MarshalText() ([]byte, error) {
	name, exists := productNames[p]
	if !exists {
		return nil, fmt.Errorf("%d, %w", int(p), ErrUnknownProduct)
	}
	return []byte(name), nil
}

func (p *Product) UnmarshalText(text []byte) error {
	parsed, err := ParseProduct(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Is4Q reports whether the product reports four-quarter changes.
func (p Product) Is4Q() bool {
	return p == History4Q || p == Forecast4Q
}

// PopulationMode returns how population growth is aligned to the product's dates.
func (p Product) PopulationMode() population.Mode {
	switch p {
	case Forecast, Forecast4Q:
		return population.Forecast
	case History, History4Q:
		return population.History
	default:
		return population.Combined
	}
}

// OutputVar names the draws of a product and class e.g. forecastobs.
func OutputVar(p Product, c Class) string {
	return productPrefix[p] + classSuffix[c]
}

// ParseOutputVar splits an output variable name such as hist4qpseudo into its
// product and class.
func ParseOutputVar(name string) (Product, Class, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for c, suffix := range classSuffix {
		prefix, found := strings.CutSuffix(n, suffix)
		if !found {
			continue
		}
		for p, pp := range productPrefix {
			if pp == prefix {
				return p, c, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%q, %w", name, ErrUnknownOutputVar)
}
