package meansbands

import (
	"context"
	"fmt"
	"testing"

	"github.com/aouyang1/go-meansbands/draws"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/aouyang1/go-meansbands/transform"
	"github.com/pkg/profile"
)

var benchRes *Result

func setupBenchInputs(ndraws, nvars, nperiods int) Inputs {
	dates := timedataset.QuarterRange(quarter("2020-Q1"), nperiods)
	transforms := make(map[string]transform.Kind, nvars)
	for i := 0; i < nvars; i++ {
		transforms[fmt.Sprintf("var%02d", i)] = transform.LogGrowthToPct
	}
	md := testMetadata(Forecast, dates, transforms)

	walks := timedataset.GenerateDraws(ndraws*nvars, nperiods, 0, 0.5, 0.2, 7)
	data := make([]float64, 0, ndraws*nvars*nperiods)
	for _, w := range walks {
		data = append(data, w...)
	}
	tensor, err := draws.NewTensor(ndraws, nvars, nperiods, 0, data)
	if err != nil {
		panic(err)
	}
	return Inputs{Draws: tensor, Metadata: md}
}

func benchmarkCompute(b *testing.B, parallelization int) {
	in := setupBenchInputs(1000, 20, 40)

	opt := NewDefaultOptions()
	opt.Parallelization = parallelization
	mb, err := New(opt)
	if err != nil {
		panic(err)
	}

	b.ResetTimer()
	for b.Loop() {
		benchRes, err = mb.Compute(context.Background(), in)
		if err != nil {
			panic(err)
		}
	}
}

func BenchmarkComputeSerial(b *testing.B) {
	benchmarkCompute(b, 1)
}

func BenchmarkComputeParallel(b *testing.B) {
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	benchmarkCompute(b, 8)
}
