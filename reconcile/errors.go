package reconcile

import "errors"

// ErrNoWorkingCopy is returned when a Reconciler is created without a
// working copy.
var ErrNoWorkingCopy = errors.New("working copy is required")
