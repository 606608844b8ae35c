package meansbands

import (
	"context"
	"errors"
	"fmt"

	"github.com/aouyang1/go-meansbands/draws"
	"gonum.org/v1/gonum/mat"
)

var ErrNoProductMetadata = errors.New("no metadata for product")

// Job describes the products to compute for one class of one estimation run.
type Job struct {
	// InputType names the estimation run the draws belong to e.g. "mode".
	InputType string
	Class     Class
	Products  []Product

	Metadata   map[Product]*Metadata
	Population *PopulationInputs
	Data       *mat.Dense
	Y0Indexes  map[Product]int
}

// Run reads the draws of every product in the job and computes its means and
// bands. Products run in order and the first error stops the run.
func (mb *MeansBands) Run(ctx context.Context, r draws.Reader, job Job) (map[Product]*Result, error) {
	results := make(map[Product]*Result, len(job.Products))
	for _, product := range job.Products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		md, exists := job.Metadata[product]
		if !exists || md == nil {
			return nil, fmt.Errorf("%s, %w", product, ErrNoProductMetadata)
		}

		outputVar := OutputVar(product, job.Class)
		t, err := r.Read(job.InputType, outputVar)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s draws, %w", outputVar, err)
		}

		res, err := mb.Compute(ctx, Inputs{
			Draws:      t,
			Metadata:   md,
			Population: job.Population,
			Data:       job.Data,
			Y0Indexes:  job.Y0Indexes,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to compute %s, %w", outputVar, err)
		}
		results[product] = res
	}
	return results, nil
}
