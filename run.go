package prep

import (
	"fmt"
	"runtime"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/prep/log"
	"pipelined.dev/prep/pool"
)

// runner holds functional parameters of one run.
type runner struct {
	workers int
	extra   Extra
	logger  *logrus.Logger
}

// parsed is the result of one manifest line. Skipped lines keep nil
// clips.
type parsed struct {
	clips  []Clip
	labels []Labels
	info   Info
}

// Run builds a dataset from the manifest at path. It drives three
// strictly ordered stages over the provided plugins: parse turns every
// manifest line into clips and label records, extract turns every clip
// into a feature, finish makes one pass over the whole feature
// collection. It returns the finished features, the label value rows
// aligned with the pre-finish feature order, and the properties derived
// during the run.
//
// Any plugin error aborts the run with no partial results.
func Run(cfg Config, path string, parse ParseFunc, extract ExtractFunc, finish FinishFunc, options ...Option) ([]Feature, [][]float64, Props, error) {
	switch {
	case parse == nil:
		return nil, nil, Props{}, ErrParseNotDefined
	case extract == nil:
		return nil, nil, Props{}, ErrExtractNotDefined
	case finish == nil:
		return nil, nil, Props{}, ErrFinishNotDefined
	}

	r := runner{logger: log.GetLogger()}
	for _, option := range options {
		option(&r)
	}
	workers := r.workers
	if workers == AllCPUs {
		workers = runtime.NumCPU()
	}

	l := r.logger.WithFields(logrus.Fields{
		"run":      xid.New().String(),
		"manifest": path,
	})

	lines, err := ReadManifest(path)
	if err != nil {
		return nil, nil, Props{}, err
	}

	l.Infof("parsing %d lines", len(lines))
	results, err := r.mapLines(workers, cfg, lines, parse, l)
	if err != nil {
		return nil, nil, Props{}, err
	}

	clips, labels, props, err := flatten(results)
	if err != nil {
		return nil, nil, Props{}, err
	}

	l.WithField("sample_rate", props.SampleRate).Infof("extracting features from %d clips", len(clips))
	features, err := r.mapClips(workers, cfg, props, clips, extract, l)
	if err != nil {
		return nil, nil, Props{}, err
	}

	l.Info("finishing features")
	features, err = finish(cfg, props, features, r.extra)
	if err != nil {
		return nil, nil, Props{}, err
	}

	values := make([][]float64, len(labels))
	for i := range labels {
		values[i] = labels[i].Values()
	}
	l.Infof("done: %d features", len(features))
	return features, values, props, nil
}

// mapLines runs the parse stage. Results are collected in manifest
// order in both modes.
func (r *runner) mapLines(workers int, cfg Config, lines []string, parse ParseFunc, l *logrus.Entry) ([]parsed, error) {
	parseLine := func(i int) (parsed, error) {
		clips, labels, info, err := parse(cfg, lines[i], r.extra)
		if err != nil {
			return parsed{}, err
		}
		if err := checkShape(i, clips, labels); err != nil {
			l.Debugf("line %d parse result:\n%s", i+1, spew.Sdump(clips, labels))
			return parsed{}, err
		}
		l.Debugf("parsed line %d of %d", i+1, len(lines))
		return parsed{clips: clips, labels: labels, info: info}, nil
	}
	if workers == Serial {
		results := make([]parsed, len(lines))
		for i := range lines {
			p, err := parseLine(i)
			if err != nil {
				return nil, err
			}
			results[i] = p
		}
		return results, nil
	}
	return pool.Map(workers, len(lines), parseLine)
}

// mapClips runs the extract stage over the flattened clips.
func (r *runner) mapClips(workers int, cfg Config, props Props, clips []Clip, extract ExtractFunc, l *logrus.Entry) ([]Feature, error) {
	extractClip := func(i int) (Feature, error) {
		f, err := extract(cfg, props, clips[i], r.extra)
		if err != nil {
			return nil, err
		}
		l.Debugf("extracted clip %d of %d", i+1, len(clips))
		return f, nil
	}
	if workers == Serial {
		features := make([]Feature, len(clips))
		for i := range clips {
			f, err := extractClip(i)
			if err != nil {
				return nil, err
			}
			features[i] = f
		}
		return features, nil
	}
	return pool.Map(workers, len(clips), extractClip)
}

// checkShape validates the clips/labels contract of one parse result:
// both sequences nil, or both of equal length. This is the only
// validation the runner performs itself.
func checkShape(line int, clips []Clip, labels []Labels) error {
	switch {
	case clips == nil && labels == nil:
		return nil
	case clips == nil || labels == nil, len(clips) != len(labels):
		return shapeError(line, clips, labels)
	}
	return nil
}

// flatten concatenates per-line results into flat clip and label
// sequences, preserving relative order within and across lines, and
// commits the derived properties. Every non-skip info must report a
// sample rate; the last one in manifest order wins.
func flatten(results []parsed) ([]Clip, []Labels, Props, error) {
	var (
		clips  []Clip
		labels []Labels
		props  Props
	)
	for i := range results {
		if results[i].clips == nil {
			continue
		}
		clips = append(clips, results[i].clips...)
		labels = append(labels, results[i].labels...)
		sampleRate, err := results[i].info.sampleRate()
		if err != nil {
			return nil, nil, Props{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		props.SampleRate = sampleRate
	}
	return clips, labels, props, nil
}
