package example

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pipelined.dev/prep"
	"pipelined.dev/prep/wav"
)

// Example 2:
//
//	Parse an inline manifest of raw values
//	Scale every clip with a gain forwarded through extra
//	Sort energy vectors by length
//
// Sorting reorders features while labels keep the pre-finish order, so
// the two are no longer aligned. That is the finish plugin's bargain:
// cheaper batches for realignment work on the caller's side.
func two() {
	dir, err := os.MkdirTemp("", "prep-example")
	check(err)
	defer os.RemoveAll(dir)

	manifest := filepath.Join(dir, "train.lst")
	check(os.WriteFile(manifest, []byte("0.5 0.5 0.5\tid=1\n0.25\tid=2\n"), 0644))

	parse := func(_ prep.Config, line string, _ prep.Extra) ([]prep.Clip, []prep.Labels, prep.Info, error) {
		values, labelSpec, _ := strings.Cut(line, "\t")
		samples := []float64{}
		for _, field := range strings.Fields(values) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, err
			}
			samples = append(samples, v)
		}
		name, value, _ := strings.Cut(labelSpec, "=")
		id, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, nil, nil, err
		}
		return []prep.Clip{{samples}},
			[]prep.Labels{prep.Labels{}.Set(name, id)},
			prep.Info{prep.SampleRateKey: 8000},
			nil
	}
	extract := func(_ prep.Config, _ prep.Props, clip prep.Clip, extra prep.Extra) (prep.Feature, error) {
		gain := extra["gain"].(float64)
		scaled := make([]float64, len(clip[0]))
		for i, s := range clip[0] {
			scaled[i] = s * gain
		}
		return scaled, nil
	}

	features, labels, _, err := prep.Run(nil, manifest,
		parse,
		extract,
		wav.SortByLength,
		prep.WithExtra(prep.Extra{"gain": 2.0}),
	)
	check(err)
	fmt.Printf("features by length: %v\nlabels in manifest order: %v\n", features, labels)
}
