// Package mock provides configurable fake plugins to test prep runs.
package mock

import (
	"strconv"
	"strings"
	"sync/atomic"

	"pipelined.dev/prep"
)

const defaultSampleRate = 44100

// Counter counts plugin invocations. Safe for pooled runs.
type Counter struct {
	calls int64
}

func (c *Counter) advance() {
	atomic.AddInt64(&c.calls, 1)
}

// Count returns the number of invocations.
func (c *Counter) Count() int64 {
	return atomic.LoadInt64(&c.calls)
}

// Parser is a fake parse plugin. It reads manifest lines of the form
//
//	value[ value...][<TAB>name=value[,name=value...]]
//
// where every whitespace-separated value before the tab becomes one
// single-channel single-frame clip and the pairs after the tab become
// the label record of each clip. Blank lines are skipped.
type Parser struct {
	Counter
	// SampleRate is reported in every non-skip info. Zero value
	// reports 44100.
	SampleRate int
	// OmitSampleRate drops the sample rate from info to exercise the
	// missing-field failure.
	OmitSampleRate bool
	// ErrorOnCall fails the invocation with this error.
	ErrorOnCall error
	// Mismatch makes every non-skip result return labels short by one
	// record to exercise the shape contract.
	Mismatch bool
}

// Parse implements prep.ParseFunc.
func (p *Parser) Parse(cfg prep.Config, line string, extra prep.Extra) ([]prep.Clip, []prep.Labels, prep.Info, error) {
	p.advance()
	if p.ErrorOnCall != nil {
		return nil, nil, nil, p.ErrorOnCall
	}
	if strings.TrimSpace(line) == "" {
		return nil, nil, prep.Info{}, nil
	}

	values := line
	var labelSpec string
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		values, labelSpec = line[:i], line[i+1:]
	}

	record := prep.Labels{}
	for _, pair := range strings.Split(labelSpec, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, nil, nil, err
		}
		record = record.Set(name, v)
	}

	var clips []prep.Clip
	var labels []prep.Labels
	for _, field := range strings.Fields(values) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, nil, nil, err
		}
		clips = append(clips, prep.Clip{{v}})
		labels = append(labels, append(prep.Labels{}, record...))
	}
	if p.Mismatch && len(labels) > 0 {
		labels = labels[:len(labels)-1]
	}

	info := prep.Info{}
	if !p.OmitSampleRate {
		sampleRate := p.SampleRate
		if sampleRate == 0 {
			sampleRate = defaultSampleRate
		}
		info[prep.SampleRateKey] = sampleRate
	}
	return clips, labels, info, nil
}

// Extractor is a fake extract plugin. It scales every sample of a clip
// by Gain and returns the scaled clip as the feature.
type Extractor struct {
	Counter
	Gain float64
	// ErrorOnCall fails the invocation with this error.
	ErrorOnCall error
}

// Extract implements prep.ExtractFunc.
func (e *Extractor) Extract(cfg prep.Config, props prep.Props, clip prep.Clip, extra prep.Extra) (prep.Feature, error) {
	e.advance()
	if e.ErrorOnCall != nil {
		return nil, e.ErrorOnCall
	}
	scaled := make(prep.Clip, len(clip))
	for i := range clip {
		scaled[i] = make([]float64, len(clip[i]))
		for j := range clip[i] {
			scaled[i][j] = clip[i][j] * e.Gain
		}
	}
	return scaled, nil
}

// Finisher is a fake finish plugin. Identity unless Reverse is set,
// which reorders features without touching labels and so desynchronizes
// the two sequences on purpose.
type Finisher struct {
	Counter
	Reverse bool
	// ErrorOnCall fails the invocation with this error.
	ErrorOnCall error
}

// Finish implements prep.FinishFunc.
func (f *Finisher) Finish(cfg prep.Config, props prep.Props, features []prep.Feature, extra prep.Extra) ([]prep.Feature, error) {
	f.advance()
	if f.ErrorOnCall != nil {
		return nil, f.ErrorOnCall
	}
	if f.Reverse {
		for i, j := 0, len(features)-1; i < j; i, j = i+1, j-1 {
			features[i], features[j] = features[j], features[i]
		}
	}
	return features, nil
}
