package meansbands

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aouyang1/go-meansbands/metrics"
	"github.com/aouyang1/go-meansbands/stats"
)

var (
	ErrUnknownFailurePolicy = errors.New("unknown failure policy")
	ErrNegativeParallel     = errors.New("parallelization must be non-negative")
)

// FailurePolicy decides what happens when a single variable fails.
type FailurePolicy int

const (
	// Abort stops the product on the first failing variable.
	Abort FailurePolicy = iota
	// Skip records the failure on the result and continues with the rest.
	Skip
)

func (f FailurePolicy) String() string {
	switch f {
	case Abort:
		return "abort"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	default:
		return 0, fmt.Errorf("%q, %w", name, ErrUnknownFailurePolicy)
	}
}

func (f FailurePolicy) MarshalText() ([]byte, error) {
	if f != Abort && f != Skip {
		return nil, fmt.Errorf("%d, %w", int(f), ErrUnknownFailurePolicy)
	}
	return []byte(f.String()), nil
}

func (f *FailurePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseFailurePolicy(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Options configures how draws are reduced to means and bands
type Options struct {
	// DensityBands are the probability masses of the reported bands.
	DensityBands []float64 `json:"density_bands"`
	// Minimize reports the narrowest band instead of the equal tailed one. Only
	// used when Bands is nil.
	Minimize bool `json:"minimize"`

	// Parallelization caps the number of variables computed at once. 0 or 1
	// runs serially.
	Parallelization int           `json:"parallelization"`
	FailurePolicy   FailurePolicy `json:"failure_policy"`

	Bands   stats.BandCalculator `json:"-"`
	Logger  *slog.Logger         `json:"-"`
	Metrics *metrics.Recorder    `json:"-"`
}

// NewDefaultOptions returns the default options
func NewDefaultOptions() *Options {
	return &Options{
		DensityBands: slices.Clone(stats.DefaultBandLevels),
	}
}

func (o *Options) bandCalculator() stats.BandCalculator {
	if o.Bands != nil {
		return o.Bands
	}
	return stats.QuantileBands{Minimize: o.Minimize}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) validate() error {
	if err := stats.ValidateLevels(o.DensityBands); err != nil {
		return fmt.Errorf("invalid density bands, %w", err)
	}
	if o.Parallelization < 0 {
		return fmt.Errorf("parallelization of %d, %w", o.Parallelization, ErrNegativeParallel)
	}
	if o.FailurePolicy != Abort && o.FailurePolicy != Skip {
		return fmt.Errorf("%d, %w", int(o.FailurePolicy), ErrUnknownFailurePolicy)
	}
	return nil
}
