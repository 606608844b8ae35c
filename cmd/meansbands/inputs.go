package main

import (
	"fmt"
	"os"

	meansbands "github.com/aouyang1/go-meansbands"
	"github.com/aouyang1/go-meansbands/config"
	mat_ "github.com/aouyang1/go-meansbands/mat"
	"github.com/aouyang1/go-meansbands/timedataset"
	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
)

// dataFile is the stored historical data of a class. Rows are variables in
// draws index order and columns are quarters.
type dataFile struct {
	Rows      [][]float64    `json:"rows"`
	Y0Indexes map[string]int `json:"y0_indexes"`
}

func readJSON(path string, v any) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		return fmt.Errorf("unable to decode %s, %w", path, err)
	}
	return nil
}

// readMetadata loads a file mapping product names to their metadata.
func readMetadata(path string) (map[meansbands.Product]*meansbands.Metadata, error) {
	var stored map[string]*meansbands.Metadata
	if err := readJSON(path, &stored); err != nil {
		return nil, err
	}
	out := make(map[meansbands.Product]*meansbands.Metadata, len(stored))
	for name, md := range stored {
		p, err := meansbands.ParseProduct(name)
		if err != nil {
			return nil, err
		}
		out[p] = md
	}
	return out, nil
}

func readData(path string) (*mat.Dense, map[meansbands.Product]int, error) {
	var stored dataFile
	if err := readJSON(path, &stored); err != nil {
		return nil, nil, err
	}
	data, err := mat_.NewDenseFromArray(stored.Rows)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to build historical data, %w", err)
	}
	y0 := make(map[meansbands.Product]int, len(stored.Y0Indexes))
	for name, idx := range stored.Y0Indexes {
		p, err := meansbands.ParseProduct(name)
		if err != nil {
			return nil, nil, err
		}
		y0[p] = idx
	}
	return data, y0, nil
}

func readTable(path string) (*timedataset.Table, error) {
	if path == "" {
		return nil, nil
	}
	var tb timedataset.Table
	if err := readJSON(path, &tb); err != nil {
		return nil, err
	}
	return &tb, nil
}

func readPopulation(cfg config.PopulationConfig, lambda *float64) (*meansbands.PopulationInputs, error) {
	if cfg.Mnemonic == "" {
		return nil, nil
	}
	history, err := readTable(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("unable to read population history, %w", err)
	}
	forecast, err := readTable(cfg.Forecast)
	if err != nil {
		return nil, fmt.Errorf("unable to read population forecast, %w", err)
	}
	return &meansbands.PopulationInputs{
		History:  history,
		Forecast: forecast,
		Mnemonic: cfg.Mnemonic,
		HPLambda: lambda,
	}, nil
}

// loadJob assembles the job described by the configuration.
func loadJob(cfg *config.Config) (meansbands.Job, error) {
	var job meansbands.Job

	class, err := cfg.Class()
	if err != nil {
		return job, err
	}
	products, err := cfg.Products()
	if err != nil {
		return job, err
	}
	md, err := readMetadata(cfg.Paths.Metadata)
	if err != nil {
		return job, fmt.Errorf("unable to read metadata, %w", err)
	}
	pop, err := readPopulation(cfg.Population, cfg.HPLambda())
	if err != nil {
		return job, err
	}

	job = meansbands.Job{
		InputType:  cfg.Job.InputType,
		Class:      class,
		Products:   products,
		Metadata:   md,
		Population: pop,
	}
	if cfg.Paths.Data != "" {
		job.Data, job.Y0Indexes, err = readData(cfg.Paths.Data)
		if err != nil {
			return job, fmt.Errorf("unable to read historical data, %w", err)
		}
	}
	return job, nil
}
