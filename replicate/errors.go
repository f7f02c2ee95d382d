package replicate

import "errors"

// ErrTargetUnusable is returned when a target has no derivable remote URL and
// therefore cannot participate in replication.
var ErrTargetUnusable = errors.New("target has no usable remote URL")

// ErrRefusedCanonical is the distinct safety refusal returned when a
// destructive operation would act on the canonical repository. It is never
// conflated with ordinary failure.
var ErrRefusedCanonical = errors.New("refused: operation would target canonical repository")

// ErrPartialSync is returned when only a subset of a layer's values reached
// the target; the layer's overall status is failed under strict
// all-or-nothing semantics.
var ErrPartialSync = errors.New("partial sync")
