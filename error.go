package prep

import (
	"errors"
	"fmt"
)

var (
	// ErrParseNotDefined is used when a parse plugin is not defined.
	ErrParseNotDefined = errors.New("parse function is not defined")
	// ErrExtractNotDefined is used when an extract plugin is not defined.
	ErrExtractNotDefined = errors.New("extract function is not defined")
	// ErrFinishNotDefined is used when a finish plugin is not defined.
	ErrFinishNotDefined = errors.New("finish function is not defined")
	// ErrSampleRateNotDefined is used when a non-skip parse result
	// carries no usable sample rate in its info.
	ErrSampleRateNotDefined = errors.New("sample rate is not defined")
	// ErrShape is used when a parse result breaks the clips/labels
	// contract: both sequences nil or both of equal length.
	ErrShape = errors.New("invalid parse result shape")
)

// shapeError describes what a parse plugin actually returned for a line.
func shapeError(line int, clips []Clip, labels []Labels) error {
	describe := func(n int, isNil bool, what string) string {
		if isNil {
			return "nil " + what
		}
		return fmt.Sprintf("%d %s", n, what)
	}
	return fmt.Errorf("%w: line %d returned %s and %s",
		ErrShape,
		line+1,
		describe(len(clips), clips == nil, "clips"),
		describe(len(labels), labels == nil, "label records"),
	)
}
