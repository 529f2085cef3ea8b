package prep_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/prep"
	"pipelined.dev/prep/mock"
)

// writeManifest saves lines as a manifest file in a test dir.
func writeManifest(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.lst")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunEndToEnd(t *testing.T) {
	path := writeManifest(t,
		"0.5\tspeaker=1,length=3",
		"0.25\tlength=4,speaker=2",
	)
	parser := &mock.Parser{SampleRate: 16000}
	extractor := &mock.Extractor{Gain: 2}
	finisher := &mock.Finisher{}

	features, labels, props, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.Nil(t, err)
	assert.Equal(t, []prep.Feature{prep.Clip{{1.0}}, prep.Clip{{0.5}}}, features)
	assert.Equal(t, [][]float64{{1, 3}, {4, 2}}, labels)
	assert.Equal(t, 16000, props.SampleRate)
	assert.Equal(t, int64(2), parser.Count())
	assert.Equal(t, int64(2), extractor.Count())
	assert.Equal(t, int64(1), finisher.Count())
}

func TestRunAllLinesSkipped(t *testing.T) {
	path := writeManifest(t, "", "", "")
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 2}
	finisher := &mock.Finisher{}

	features, labels, props, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(features))
	assert.Equal(t, 0, len(labels))
	assert.Equal(t, prep.Props{}, props)
	assert.Equal(t, int64(0), extractor.Count())
}

func TestRunFlattenOrder(t *testing.T) {
	// lines yield 2, 0 and 1 clips; flattening keeps order within
	// and across lines
	path := writeManifest(t,
		"1 2\tid=1",
		"",
		"3\tid=2",
	)
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 1}
	finisher := &mock.Finisher{}

	features, labels, _, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.Nil(t, err)
	assert.Equal(t, []prep.Feature{prep.Clip{{1.0}}, prep.Clip{{2.0}}, prep.Clip{{3.0}}}, features)
	assert.Equal(t, [][]float64{{1}, {1}, {2}}, labels)
}

func TestRunDeterminism(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = "0.5 0.25\tid=1"
	}
	path := writeManifest(t, lines...)

	run := func(workers int) ([]prep.Feature, [][]float64, prep.Props) {
		parser := &mock.Parser{SampleRate: 16000}
		extractor := &mock.Extractor{Gain: 2}
		finisher := &mock.Finisher{}
		features, labels, props, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish, prep.WithWorkers(workers))
		require.Nil(t, err)
		return features, labels, props
	}

	serialFeatures, serialLabels, serialProps := run(prep.Serial)
	for _, workers := range []int{1, 4, 16} {
		features, labels, props := run(workers)
		if !assert.Equal(t, serialFeatures, features) {
			diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(spew.Sdump(serialFeatures)),
				B:        difflib.SplitLines(spew.Sdump(features)),
				FromFile: "serial",
				ToFile:   "pooled",
				Context:  3,
			})
			t.Log(diff)
		}
		assert.Equal(t, serialLabels, labels)
		assert.Equal(t, serialProps, props)
	}
}

func TestRunLastSampleRateWins(t *testing.T) {
	// rates differ per line; the last non-skip line in manifest order
	// must win in both modes, trailing skips do not reset it
	path := writeManifest(t, "first", "", "last", "")
	parse := func(_ prep.Config, line string, _ prep.Extra) ([]prep.Clip, []prep.Labels, prep.Info, error) {
		if line == "" {
			return nil, nil, prep.Info{}, nil
		}
		rate := 8000
		if line == "last" {
			rate = 16000
		}
		return []prep.Clip{{{1}}}, []prep.Labels{{}}, prep.Info{prep.SampleRateKey: rate}, nil
	}
	for _, workers := range []int{prep.Serial, 1, 2} {
		extractor := &mock.Extractor{Gain: 1}
		finisher := &mock.Finisher{}
		_, _, props, err := prep.Run(nil, path, parse, extractor.Extract, finisher.Finish, prep.WithWorkers(workers))
		assert.Nil(t, err)
		assert.Equal(t, 16000, props.SampleRate)
	}
}

func TestRunShapeViolation(t *testing.T) {
	path := writeManifest(t, "0.5 0.25\tid=1")
	parser := &mock.Parser{Mismatch: true}
	extractor := &mock.Extractor{Gain: 2}
	finisher := &mock.Finisher{}

	features, labels, _, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.ErrorIs(t, err, prep.ErrShape)
	assert.Nil(t, features)
	assert.Nil(t, labels)
	// violation surfaces before any extraction
	assert.Equal(t, int64(0), extractor.Count())
}

func TestRunMissingSampleRate(t *testing.T) {
	path := writeManifest(t, "0.5\tid=1")
	parser := &mock.Parser{OmitSampleRate: true}
	extractor := &mock.Extractor{Gain: 2}
	finisher := &mock.Finisher{}

	_, _, _, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.ErrorIs(t, err, prep.ErrSampleRateNotDefined)
	assert.Equal(t, int64(0), extractor.Count())
}

func TestRunPluginErrors(t *testing.T) {
	errTest := errors.New("test error")
	path := writeManifest(t, "0.5\tid=1")

	tests := []struct {
		name      string
		parser    *mock.Parser
		extractor *mock.Extractor
		finisher  *mock.Finisher
	}{
		{name: "parse", parser: &mock.Parser{ErrorOnCall: errTest}},
		{name: "extract", extractor: &mock.Extractor{ErrorOnCall: errTest}},
		{name: "finish", finisher: &mock.Finisher{ErrorOnCall: errTest}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.parser == nil {
				test.parser = &mock.Parser{}
			}
			if test.extractor == nil {
				test.extractor = &mock.Extractor{Gain: 1}
			}
			if test.finisher == nil {
				test.finisher = &mock.Finisher{}
			}
			for _, workers := range []int{prep.Serial, 2} {
				_, _, _, err := prep.Run(nil, path, test.parser.Parse, test.extractor.Extract, test.finisher.Finish, prep.WithWorkers(workers))
				assert.ErrorIs(t, err, errTest)
			}
		})
	}
}

func TestRunPluginsNotDefined(t *testing.T) {
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 1}
	finisher := &mock.Finisher{}

	_, _, _, err := prep.Run(nil, "train.lst", nil, extractor.Extract, finisher.Finish)
	assert.ErrorIs(t, err, prep.ErrParseNotDefined)
	_, _, _, err = prep.Run(nil, "train.lst", parser.Parse, nil, finisher.Finish)
	assert.ErrorIs(t, err, prep.ErrExtractNotDefined)
	_, _, _, err = prep.Run(nil, "train.lst", parser.Parse, extractor.Extract, nil)
	assert.ErrorIs(t, err, prep.ErrFinishNotDefined)
}

func TestRunManifestMissing(t *testing.T) {
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 1}
	finisher := &mock.Finisher{}

	_, _, _, err := prep.Run(nil, filepath.Join(t.TempDir(), "missing.lst"), parser.Parse, extractor.Extract, finisher.Finish)
	assert.True(t, os.IsNotExist(err))
}

func TestRunFinishReorderCaveat(t *testing.T) {
	// a finish plugin that reorders features leaves labels in the
	// pre-finish order on purpose; alignment is the plugin's duty
	path := writeManifest(t,
		"1\tid=1",
		"2\tid=2",
	)
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 1}
	finisher := &mock.Finisher{Reverse: true}

	features, labels, _, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish)
	assert.Nil(t, err)
	assert.Equal(t, []prep.Feature{prep.Clip{{2.0}}, prep.Clip{{1.0}}}, features)
	assert.Equal(t, [][]float64{{1}, {2}}, labels)
}

func TestRunAllCPUs(t *testing.T) {
	path := writeManifest(t, "0.5\tid=1", "0.25\tid=2")
	parser := &mock.Parser{}
	extractor := &mock.Extractor{Gain: 2}
	finisher := &mock.Finisher{}

	features, _, _, err := prep.Run(nil, path, parser.Parse, extractor.Extract, finisher.Finish, prep.WithWorkers(prep.AllCPUs))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(features))
}
