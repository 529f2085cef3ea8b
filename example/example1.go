package example

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	goaudiowav "github.com/go-audio/wav"

	"pipelined.dev/prep"
	"pipelined.dev/prep/wav"
)

// Example 1:
//
//	Build a manifest of wav files
//	Extract per-frame energies over a worker pool
//	Pad every energy vector to the longest one
func one() {
	dir, err := os.MkdirTemp("", "prep-example")
	check(err)
	defer os.RemoveAll(dir)

	manifest := filepath.Join(dir, "train.lst")
	lines := ""
	for i, frames := range []int{800, 400} {
		path := filepath.Join(dir, fmt.Sprintf("sample%d.wav", i))
		writeWav(path, 16000, make([]int, frames))
		lines += fmt.Sprintf("%s\tspeaker=%d\n", path, i+1)
	}
	check(os.WriteFile(manifest, []byte(lines), 0644))

	features, labels, props, err := prep.Run(nil, manifest,
		wav.Parse,
		wav.Frames(400),
		wav.PadToLongest,
		prep.WithWorkers(prep.AllCPUs),
	)
	check(err)
	fmt.Printf("built %d features and %d label rows at %d Hz\n",
		len(features), len(labels), props.SampleRate)
}

// writeWav saves pcm data as a 16-bit mono wav file.
func writeWav(path string, sampleRate int, data []int) {
	file, err := os.Create(path)
	check(err)
	encoder := goaudiowav.NewEncoder(file, sampleRate, 16, 1, 1)
	check(encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}))
	check(encoder.Close())
	check(file.Close())
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
