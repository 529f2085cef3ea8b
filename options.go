package prep

import (
	"github.com/sirupsen/logrus"
)

const (
	// Serial makes Run execute the parse and extract stages one item
	// after another in the calling goroutine. This is the default.
	Serial = 0
	// AllCPUs makes Run size the worker pool to the number of
	// available CPUs.
	AllCPUs = -1
)

// Option provides a way to set functional parameters to a run.
type Option func(r *runner)

// WithWorkers sets the worker count for the parse and extract stages.
// Serial runs both stages in the calling goroutine, a positive count
// runs them over a pool of that many workers, AllCPUs uses all
// available CPUs. Each stage gets a fresh pool, torn down when the
// stage is drained.
func WithWorkers(workers int) Option {
	return func(r *runner) {
		r.workers = workers
	}
}

// WithExtra sets the mapping forwarded to all three plugins.
func WithExtra(extra Extra) Option {
	return func(r *runner) {
		r.extra = extra
	}
}

// WithLogger sets logger to a run. If this option is not provided,
// logger from the log package is used.
func WithLogger(logger *logrus.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}
