package sheet

import (
	"fmt"
	"strings"

	"github.com/pixelmill/spritepack/pkg/errors"
)

// MissingAnimationDirError reports an animation declared in the config
// whose frame subdirectory does not exist under the input directory.
type MissingAnimationDirError struct {
	Animation string
	Dir       string
}

func (e *MissingAnimationDirError) Error() string {
	return fmt.Sprintf("animation %q: directory %s not found", e.Animation, e.Dir)
}

// Code returns the machine-readable code for this error.
func (e *MissingAnimationDirError) Code() errors.Code {
	return errors.ErrCodeMissingAnimationDir
}

// FrameDimensionError reports a frame whose pixel size differs from the
// configured cell size. Frames are never resampled to fit.
type FrameDimensionError struct {
	Animation string
	Path      string
	WantW     int
	WantH     int
	GotW      int
	GotH      int
}

func (e *FrameDimensionError) Error() string {
	return fmt.Sprintf("animation %q: frame %s is %dx%d, want %dx%d",
		e.Animation, e.Path, e.GotW, e.GotH, e.WantW, e.WantH)
}

// Code returns the machine-readable code for this error.
func (e *FrameDimensionError) Code() errors.Code {
	return errors.ErrCodeFrameDimensionMismatch
}

// FrameCountError reports an animation whose resolved frame count differs
// from the declared count. Frames are never truncated or padded.
type FrameCountError struct {
	Animation string
	Expected  int
	Found     int
}

func (e *FrameCountError) Error() string {
	return fmt.Sprintf("animation %q: expected %d frames, found %d",
		e.Animation, e.Expected, e.Found)
}

// Code returns the machine-readable code for this error.
func (e *FrameCountError) Code() errors.Code {
	return errors.ErrCodeFrameCountMismatch
}

// ResolveError aggregates every resolution failure from a single pass over
// the input directory, in config declaration order, so a user sees all
// problems at once instead of fixing them one run at a time.
type ResolveError struct {
	Issues []error
}

func (e *ResolveError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Error()
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Error()
	}
	return fmt.Sprintf("%d resolution errors: %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected issues to errors.Is/As.
func (e *ResolveError) Unwrap() []error {
	return e.Issues
}
