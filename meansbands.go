// Package meansbands reduces posterior draws of model output to a mean path
// and density bands per reported series, after converting each series into
// the percent change representation it is reported in.
package meansbands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/go-meansbands/draws"
	mat_ "github.com/aouyang1/go-meansbands/mat"
	"github.com/aouyang1/go-meansbands/population"
	"github.com/aouyang1/go-meansbands/stats"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/aouyang1/go-meansbands/transform"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoDraws         = errors.New("no draws provided")
	ErrNoMetadata      = errors.New("no metadata provided")
	ErrVariableIndex   = errors.New("variable index outside of draws")
	ErrShockIndex      = errors.New("shock index outside of draws")
	ErrDrawsDimensions = errors.New("draws dimensions do not match the product")
)

// VariableError reports the variable, product and transform a failure occurred on.
type VariableError struct {
	Variable string
	Product  Product
	Class    Class
	Kind     transform.Kind
	Err      error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("variable %s of %s %s with %s, %v", e.Variable, e.Class, e.Product, e.Kind, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

// PopulationInputs locates population growth in history and forecast tables.
type PopulationInputs struct {
	History  *timedataset.Table
	Forecast *timedataset.Table
	Mnemonic string

	// HPLambda smooths population growth with an HP filter when set.
	HPLambda *float64
}

// Inputs are the draws of one product and class along with the data the
// transforms of its variables need. Population, Data and Y0Indexes may be
// absent when no reported variable needs them.
type Inputs struct {
	Draws    *draws.Tensor
	Metadata *Metadata

	Population *PopulationInputs

	// Data is the nvars x nperiods historical data of the class.
	Data *mat.Dense
	// Y0Indexes is the column of Data holding the last known level before the
	// first period of each product.
	Y0Indexes map[Product]int
}

// MeansBands computes means and bands from draws
type MeansBands struct {
	opt   *Options
	bands stats.BandCalculator
}

// New creates a new instance of MeansBands using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*MeansBands, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	return &MeansBands{
		opt:   opt,
		bands: opt.bandCalculator(),
	}, nil
}

// job is one series to compute: a variable, or a variable and shock pair.
type job struct {
	variable string
	series   string
	index    int
	shock    int
	kind     transform.Kind
	aux      transform.Aux
}

// Compute transforms the draws of every reported variable and reduces them to
// a mean and density bands. Every variable is checked for the inputs its
// transform needs before any arithmetic takes place.
func (mb *MeansBands) Compute(ctx context.Context, in Inputs) (*Result, error) {
	start := time.Now()
	if in.Draws == nil {
		return nil, ErrNoDraws
	}
	md := in.Metadata
	if md == nil {
		return nil, ErrNoMetadata
	}
	if err := md.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metadata, %w", err)
	}
	dates, err := md.OrderedDates()
	if err != nil {
		return nil, err
	}
	if err := checkDrawsShape(md, in.Draws, len(dates)); err != nil {
		return nil, err
	}

	logger := mb.opt.logger().With("product", md.Product.String(), "class", md.Class.String())
	res := newResult(md, dates)

	p := &planner{in: in, dates: dates}
	var jobs []job
	for _, variable := range md.Reported() {
		vjobs, err := p.plan(variable)
		if err != nil {
			verr := &VariableError{
				Variable: variable,
				Product:  md.Product,
				Class:    md.Class,
				Kind:     md.Transforms[variable],
				Err:      err,
			}
			if mb.opt.FailurePolicy == Abort {
				return nil, verr
			}
			mb.skip(res, variable, verr, logger)
			continue
		}
		jobs = append(jobs, vjobs...)
	}

	var mu sync.Mutex
	failed := make(map[string]struct{})

	g, gctx := errgroup.WithContext(ctx)
	limit := mb.opt.Parallelization
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			means, bands, err := mb.computeSeries(in, md.Product, len(dates), j)
			if err != nil {
				verr := &VariableError{
					Variable: j.variable,
					Product:  md.Product,
					Class:    md.Class,
					Kind:     j.kind,
					Err:      err,
				}
				if mb.opt.FailurePolicy == Abort {
					return verr
				}
				mu.Lock()
				if _, seen := failed[j.variable]; !seen {
					failed[j.variable] = struct{}{}
					mb.skip(res, j.variable, verr, logger)
				}
				mu.Unlock()
				return nil
			}

			mu.Lock()
			res.MeanTable[j.series] = means
			res.BandTable[j.series] = bands
			mu.Unlock()

			mb.opt.Metrics.SeriesComputed(md.Product.String(), md.Class.String())
			logger.Debug("computed series", "series", j.series, "transform", j.kind.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// a variable with one failed shock is dropped entirely
	for variable := range failed {
		for _, j := range jobs {
			if j.variable == variable {
				delete(res.MeanTable, j.series)
				delete(res.BandTable, j.series)
			}
		}
	}

	if err := res.Validate(); err != nil {
		return nil, err
	}
	mb.opt.Metrics.ObserveProduct(md.Product.String(), md.Class.String(), start)
	logger.Info("computed means and bands",
		"series", len(res.MeanTable),
		"failures", len(res.Failures),
		"duration", time.Since(start),
	)
	return res, nil
}

func (mb *MeansBands) skip(res *Result, variable string, err error, logger *slog.Logger) {
	res.Failures[variable] = err.Error()
	mb.opt.Metrics.VariableFailed(res.Product.String(), res.Class.String())
	logger.Warn("skipping variable", "variable", variable, "error", err.Error())
}

// ComputeSeries transforms a single draws matrix with kind and reduces it to a
// mean and density bands.
func (mb *MeansBands) ComputeSeries(y mat.Matrix, kind transform.Kind, aux transform.Aux) ([]float64, stats.Bands, error) {
	out, err := transform.Apply(kind, y, aux)
	if err != nil {
		return nil, nil, err
	}
	return mb.reduce(out)
}

func (mb *MeansBands) reduce(y mat.Matrix) ([]float64, stats.Bands, error) {
	means, err := stats.ColMeans(y)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to compute means, %w", err)
	}
	bands, err := mb.bands.Bands(y, mb.opt.DensityBands)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to compute bands, %w", err)
	}
	return means, bands, nil
}

func (mb *MeansBands) computeSeries(in Inputs, product Product, ndates int, j job) ([]float64, stats.Bands, error) {
	var y *mat.Dense
	var err error
	if j.shock >= 0 {
		y, err = in.Draws.VarShock(j.index, j.shock)
	} else {
		y, err = in.Draws.Var(j.index)
	}
	if err != nil {
		return nil, nil, err
	}

	// trend draws hold one value per draw, repeated over every date
	if product == Trend {
		y, err = mat_.BroadcastCols(y, ndates)
		if err != nil {
			return nil, nil, err
		}
	}

	out, err := transform.Apply(j.kind, y, j.aux)
	if err != nil {
		return nil, nil, err
	}
	if _, c := out.Dims(); c != ndates {
		return nil, nil, fmt.Errorf("got %d periods for %d dates, %w", c, ndates, ErrDateMismatch)
	}
	return mb.reduce(out)
}

func checkDrawsShape(md *Metadata, t *draws.Tensor, ndates int) error {
	switch md.Product {
	case Trend:
		if t.NPeriods != 1 {
			return fmt.Errorf("trend draws have %d periods, expected 1, %w", t.NPeriods, ErrDrawsDimensions)
		}
	default:
		if t.NPeriods != ndates {
			return fmt.Errorf("draws have %d periods for %d dates, %w", t.NPeriods, ndates, ErrDateMismatch)
		}
	}
	if md.Product == ShockDec {
		if !t.IsShockDecomposition() {
			return fmt.Errorf("shock decomposition draws have no shocks, %w", ErrDrawsDimensions)
		}
		for name, s := range md.Shocks {
			if s < 0 || s >= t.NShocks {
				return fmt.Errorf("shock %s at %d of %d, %w", name, s, t.NShocks, ErrShockIndex)
			}
		}
	} else if t.IsShockDecomposition() {
		return fmt.Errorf("%s draws carry %d shocks, %w", md.Product, t.NShocks, ErrDrawsDimensions)
	}
	return nil
}

// planner resolves the transform and auxiliary inputs of each variable.
// Population growth is the same for every variable of a product so it is
// resolved once.
type planner struct {
	in    Inputs
	dates []time.Time

	resolver *population.Resolver
	resolved bool
	resErr   error

	pop     []float64
	popErr  error
	popDone bool

	popPrior     []float64
	popCurrent   []float64
	lookbackErr  error
	lookbackDone bool
}

func (p *planner) plan(variable string) ([]job, error) {
	md := p.in.Metadata
	kind := md.Transforms[variable]
	if md.Product.Is4Q() {
		k4, err := kind.FourQuarter()
		if err != nil {
			return nil, err
		}
		kind = k4
	}
	index := md.Indices[variable]
	if index < 0 || index >= p.in.Draws.NVars {
		return nil, fmt.Errorf("index %d of %d, %w", index, p.in.Draws.NVars, ErrVariableIndex)
	}

	aux, err := p.aux(kind, index)
	if err != nil {
		return nil, err
	}
	if err := transform.Check(kind, aux); err != nil {
		return nil, err
	}

	if md.Product != ShockDec {
		return []job{{
			variable: variable,
			series:   variable,
			index:    index,
			shock:    -1,
			kind:     kind,
			aux:      aux,
		}}, nil
	}

	shocks := md.ShockNames()
	jobs := make([]job, 0, len(shocks))
	for _, shock := range shocks {
		jobs = append(jobs, job{
			variable: variable,
			series:   SeriesName(variable, shock),
			index:    index,
			shock:    md.Shocks[shock],
			kind:     kind,
			aux:      aux,
		})
	}
	return jobs, nil
}

func (p *planner) aux(kind transform.Kind, index int) (transform.Aux, error) {
	var aux transform.Aux
	spec, err := kind.Spec()
	if err != nil {
		return aux, err
	}

	if spec.NeedsPopulation() {
		pop, popPrior, err := p.population(spec.NeedsPrior())
		if err != nil {
			return aux, err
		}
		aux.Population = pop
		aux.PopulationPrior = popPrior
	}

	if spec.NeedsY0() || spec.NeedsPrior() {
		if p.in.Data == nil {
			return aux, fmt.Errorf("no historical data, %w", transform.ErrMissingY0)
		}
		y0Idx, exists := p.in.Y0Indexes[p.in.Metadata.Product]
		if !exists {
			return aux, fmt.Errorf("no y0 index for %s, %w", p.in.Metadata.Product, transform.ErrMissingY0)
		}
		nvars, nperiods := p.in.Data.Dims()
		if index >= nvars {
			return aux, fmt.Errorf("historical data has %d variables, %w", nvars, ErrVariableIndex)
		}
		if y0Idx < 0 || y0Idx >= nperiods {
			return aux, fmt.Errorf("y0 index %d of %d periods, %w", y0Idx, nperiods, transform.ErrMissingY0)
		}

		if spec.NeedsY0() {
			y0 := p.in.Data.At(index, y0Idx)
			aux.Y0 = &y0
		}
		if spec.NeedsPrior() {
			first := y0Idx - spec.Lookback + 1
			if first < 0 {
				return aux, fmt.Errorf(
					"need %d periods up to y0 index %d, %w",
					spec.Lookback, y0Idx, transform.ErrLookbackLen,
				)
			}
			aux.Prior = mat.Row(nil, index, p.in.Data)[first : y0Idx+1]
		}
	}
	return aux, nil
}

func (p *planner) population(withPrior bool) ([]float64, []float64, error) {
	r, err := p.populationResolver()
	if err != nil {
		return nil, nil, err
	}

	mode := p.in.Metadata.Product.PopulationMode()
	if !withPrior {
		if !p.popDone {
			p.pop, p.popErr = r.Resolve(mode, p.dates)
			p.popDone = true
		}
		return p.pop, nil, p.popErr
	}

	if !p.lookbackDone {
		p.popPrior, p.popCurrent, p.lookbackErr = r.ResolveWithLookback(mode, p.dates, transform.PopulationLookback)
		p.lookbackDone = true
	}
	return p.popCurrent, p.popPrior, p.lookbackErr
}

func (p *planner) populationResolver() (*population.Resolver, error) {
	if p.resolved {
		return p.resolver, p.resErr
	}
	p.resolved = true

	pi := p.in.Population
	if pi == nil || pi.Mnemonic == "" {
		p.resErr = fmt.Errorf("no population inputs, %w", transform.ErrMissingPopulation)
		return nil, p.resErr
	}
	r, err := population.NewResolver(pi.History, pi.Forecast, pi.Mnemonic)
	if err != nil {
		p.resErr = fmt.Errorf("%w, %w", transform.ErrMissingPopulation, err)
		return nil, p.resErr
	}
	if pi.HPLambda != nil {
		r, err = r.Smoothed(*pi.HPLambda)
		if err != nil {
			p.resErr = err
			return nil, p.resErr
		}
	}
	p.resolver = r
	return r, nil
}
