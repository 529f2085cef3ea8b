package prep

// Clip is raw sample data prior to feature extraction, represented in
// two-dimensional array where first dimension is for channels.
type Clip [][]float64

// Size returns a number of frames per channel.
func (c Clip) Size() int {
	if len(c) == 0 || c[0] == nil {
		return 0
	}
	return len(c[0])
}

// NumChannels returns a number of channels.
func (c Clip) NumChannels() int {
	return len(c)
}

// Feature is the extracted representation of one clip, ready for
// downstream consumption. Its concrete type is defined by the
// extract plugin.
type Feature interface{}

// Label is one named target value of a record.
type Label struct {
	Name  string
	Value float64
}

// Labels is an ordered label record. Order of names is significant:
// Values flattens the record positionally in the order names were set.
type Labels []Label

// Set assigns a value to a name. A new name is appended, an existing
// name keeps its position and gets the new value.
func (l Labels) Set(name string, value float64) Labels {
	for i := range l {
		if l[i].Name == name {
			l[i].Value = value
			return l
		}
	}
	return append(l, Label{Name: name, Value: value})
}

// Get returns a value by name.
func (l Labels) Get(name string) (float64, bool) {
	for i := range l {
		if l[i].Name == name {
			return l[i].Value, true
		}
	}
	return 0, false
}

// Values flattens the record into a positional sequence of its values.
func (l Labels) Values() []float64 {
	values := make([]float64, len(l))
	for i := range l {
		values[i] = l[i].Value
	}
	return values
}

// Info is per-line metadata reported by a parse plugin. The runner only
// reads the sample rate from it, everything else is for the caller.
type Info map[string]interface{}

// SampleRateKey is the info key every non-skip parse result must carry.
const SampleRateKey = "sample_rate"

// sampleRate reads the sample rate value. Both int and float64 values
// are accepted, as decoders report either.
func (i Info) sampleRate() (int, error) {
	v, ok := i[SampleRateKey]
	if !ok {
		return 0, ErrSampleRateNotDefined
	}
	switch sr := v.(type) {
	case int:
		return sr, nil
	case int64:
		return int(sr), nil
	case uint32:
		return int(sr), nil
	case float64:
		return int(sr), nil
	}
	return 0, ErrSampleRateNotDefined
}

// Config is a snapshot of caller hyperparameters. It is broadcast to
// every plugin invocation and is never written by the runner: settings
// derived during the run travel in Props instead.
type Config map[string]interface{}

// Int reads an integer setting.
func (c Config) Int(name string) (int, bool) {
	v, ok := c[name].(int)
	return v, ok
}

// Float reads a float setting.
func (c Config) Float(name string) (float64, bool) {
	v, ok := c[name].(float64)
	return v, ok
}

// String reads a string setting.
func (c Config) String(name string) (string, bool) {
	v, ok := c[name].(string)
	return v, ok
}

// Props are settings derived during the run. They are produced by the
// parse stage, passed to the extract and finish stages and returned to
// the caller.
type Props struct {
	// SampleRate is the rate reported by the last non-skip parse
	// result. Last one wins: the manifest is trusted to be consistent.
	SampleRate int
}

// Extra is an arbitrary mapping forwarded to all three plugins uniformly.
type Extra map[string]interface{}

// ParseFunc turns one manifest line into clips and label records. It
// returns either (nil, nil, info, nil) to signal that the line yielded
// no usable records, or two sequences of equal length. Any other shape
// violates the contract and aborts the run.
type ParseFunc func(cfg Config, line string, extra Extra) ([]Clip, []Labels, Info, error)

// ExtractFunc turns one raw clip into its feature representation.
type ExtractFunc func(cfg Config, props Props, clip Clip, extra Extra) (Feature, error)

// FinishFunc is called once with the whole feature collection and may
// pad, normalize or reorder it. Labels are consumed positionally against
// the pre-finish feature order: a finish plugin that reorders or resizes
// the collection is responsible for keeping labels aligned itself.
type FinishFunc func(cfg Config, props Props, features []Feature, extra Extra) ([]Feature, error)
