package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"pipelined.dev/prep"
	"pipelined.dev/prep/wav"
)

// jobConfig describes one preprocessing job.
type jobConfig struct {
	Manifest string `koanf:"manifest"`
	Workers  int    `koanf:"workers"`
	// FrameSize is the energy window in frames.
	FrameSize int `koanf:"frame_size"`
	// Finish selects the finish pass: pad or sort.
	Finish string `koanf:"finish"`
	// Output is an optional path for the built dataset as json.
	Output string `koanf:"output"`
}

type runCommand struct {
	config string
}

func (cmd *runCommand) Name() string {
	return "run"
}

func (cmd *runCommand) Help() string {
	return "Build a dataset from the manifest described by a job config"
}

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", "", "path to yaml job config (required)")
}

func (cmd *runCommand) Run() error {
	if cmd.config == "" {
		return fmt.Errorf("missing -config required flag")
	}
	job, err := loadJob(cmd.config)
	if err != nil {
		return err
	}

	finish := wav.PadToLongest
	if job.Finish == "sort" {
		finish = wav.SortByLength
	}
	features, labels, props, err := prep.Run(nil, job.Manifest,
		wav.Parse,
		wav.Frames(job.FrameSize),
		finish,
		prep.WithWorkers(job.Workers),
	)
	if err != nil {
		return err
	}

	fmt.Printf("built %d features and %d label rows at %d Hz\n",
		len(features), len(labels), props.SampleRate)
	if job.Output == "" {
		return nil
	}
	return saveDataset(job.Output, features, labels, props)
}

// loadJob reads a yaml job config and applies defaults.
func loadJob(path string) (jobConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return jobConfig{}, fmt.Errorf("load config: %w", err)
	}
	job := jobConfig{
		Workers:   prep.Serial,
		FrameSize: 400,
	}
	if err := k.Unmarshal("", &job); err != nil {
		return jobConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if job.Manifest == "" {
		return jobConfig{}, fmt.Errorf("manifest is not defined in %s", path)
	}
	return job, nil
}

// dataset is the json layout of a built dataset.
type dataset struct {
	SampleRate int            `json:"sample_rate"`
	Features   []prep.Feature `json:"features"`
	Labels     [][]float64    `json:"labels"`
}

func saveDataset(path string, features []prep.Feature, labels [][]float64, props prep.Props) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dataset{
		SampleRate: props.SampleRate,
		Features:   features,
		Labels:     labels,
	})
}
