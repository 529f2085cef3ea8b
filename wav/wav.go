// Package wav provides prep plugins for manifests of wav files.
package wav

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/prep"
)

var (
	// ErrNotValid is used when a manifest line points to a file which
	// is not a valid wav.
	ErrNotValid = errors.New("wav is not valid")
	// ErrFrameSizeNotDefined is used when frame size is not defined.
	ErrFrameSizeNotDefined = errors.New("frame size is not defined")
)

// Parse decodes one manifest line of the form
//
//	path<TAB>name=value[,name=value...]
//
// into a single clip with its label record. The whole wav file is read
// into memory. Blank lines and lines starting with # are skipped. The
// reported info carries the sample rate, bit depth and channel count of
// the decoded file.
func Parse(cfg prep.Config, line string, extra prep.Extra) ([]prep.Clip, []prep.Labels, prep.Info, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil, prep.Info{}, nil
	}

	path := trimmed
	var labelSpec string
	if i := strings.IndexByte(trimmed, '\t'); i >= 0 {
		path, labelSpec = trimmed[:i], trimmed[i+1:]
	}

	labels, err := parseLabels(labelSpec)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotValid, path)
	}
	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	clip, err := asClip(buffer)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	info := prep.Info{
		prep.SampleRateKey: int(decoder.SampleRate),
		"bit_depth":        int(decoder.BitDepth),
		"num_channels":     clip.NumChannels(),
		"path":             path,
	}
	return []prep.Clip{clip}, []prep.Labels{labels}, info, nil
}

// parseLabels reads a comma separated list of name=value pairs.
func parseLabels(spec string) (prep.Labels, error) {
	labels := prep.Labels{}
	if spec == "" {
		return labels, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid label pair: %q", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid label value: %q", pair)
		}
		labels = labels.Set(name, v)
	}
	return labels, nil
}

// asClip converts an integer pcm buffer to a clip with samples scaled
// to [-1, 1].
func asClip(b *audio.IntBuffer) (prep.Clip, error) {
	if b == nil || b.Format == nil {
		return nil, ErrNotValid
	}
	numChannels := b.Format.NumChannels
	if numChannels == 0 {
		return nil, ErrNotValid
	}
	bitDepth := b.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	divisor := float64(int(1) << (bitDepth - 1))

	clip := prep.Clip(make([][]float64, numChannels))
	bufferLen := len(b.Data)
	for i := range clip {
		clip[i] = make([]float64, 0, b.NumFrames())
		for j := i; j < bufferLen; j = j + numChannels {
			clip[i] = append(clip[i], float64(b.Data[j])/divisor)
		}
	}
	return clip, nil
}

// Peak returns the maximum absolute sample value of the clip as a
// float64 feature.
func Peak(cfg prep.Config, props prep.Props, clip prep.Clip, extra prep.Extra) (prep.Feature, error) {
	peak := 0.0
	for i := range clip {
		for _, s := range clip[i] {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
	}
	return peak, nil
}

// Frames returns an extract function which mixes the clip down to mono
// and computes per-frame root mean square energies over windows of size
// frames. The tail window is included even when incomplete. The feature
// is a []float64 energy vector.
func Frames(size int) prep.ExtractFunc {
	return func(cfg prep.Config, props prep.Props, clip prep.Clip, extra prep.Extra) (prep.Feature, error) {
		if size < 1 {
			return nil, ErrFrameSizeNotDefined
		}
		mono := mixdown(clip)
		energies := make([]float64, 0, (len(mono)+size-1)/size)
		for start := 0; start < len(mono); start += size {
			end := start + size
			if end > len(mono) {
				end = len(mono)
			}
			sum := 0.0
			for _, s := range mono[start:end] {
				sum += s * s
			}
			energies = append(energies, math.Sqrt(sum/float64(end-start)))
		}
		return energies, nil
	}
}

// mixdown averages all channels into one.
func mixdown(clip prep.Clip) []float64 {
	if clip.NumChannels() == 0 {
		return nil
	}
	if clip.NumChannels() == 1 {
		return clip[0]
	}
	mono := make([]float64, clip.Size())
	for i := range mono {
		for c := range clip {
			mono[i] += clip[c][i]
		}
		mono[i] /= float64(clip.NumChannels())
	}
	return mono
}

// PadToLongest zero-pads every energy vector to the length of the
// longest one. Order is preserved, so labels stay aligned.
func PadToLongest(cfg prep.Config, props prep.Props, features []prep.Feature, extra prep.Extra) ([]prep.Feature, error) {
	vectors, err := asVectors(features)
	if err != nil {
		return nil, err
	}
	longest := 0
	for i := range vectors {
		if len(vectors[i]) > longest {
			longest = len(vectors[i])
		}
	}
	padded := make([]prep.Feature, len(vectors))
	for i := range vectors {
		v := make([]float64, longest)
		copy(v, vectors[i])
		padded[i] = v
	}
	return padded, nil
}

// SortByLength orders energy vectors from shortest to longest, which
// packs batches efficiently. Labels are consumed against the pre-finish
// order: after this pass they no longer line up with features, and
// realigning them is the caller's duty.
func SortByLength(cfg prep.Config, props prep.Props, features []prep.Feature, extra prep.Extra) ([]prep.Feature, error) {
	vectors, err := asVectors(features)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(vectors, func(i, j int) bool {
		return len(vectors[i]) < len(vectors[j])
	})
	sorted := make([]prep.Feature, len(vectors))
	for i := range vectors {
		sorted[i] = vectors[i]
	}
	return sorted, nil
}

func asVectors(features []prep.Feature) ([][]float64, error) {
	vectors := make([][]float64, len(features))
	for i := range features {
		v, ok := features[i].([]float64)
		if !ok {
			return nil, fmt.Errorf("conversion to []float64 from %T is not defined", features[i])
		}
		vectors[i] = v
	}
	return vectors, nil
}
