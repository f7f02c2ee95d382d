package reconcile

import (
	"context"
	"errors"
)

// Classification describes the relationship between the local head and the
// canonical head.
type Classification int

const (
	// ClassError means one of the refs could not be resolved or ancestry
	// could not be determined. No mutation is attempted in this state.
	ClassError Classification = iota

	// ClassUpToDate means local and canonical heads are identical.
	ClassUpToDate

	// ClassBehind means the local head is an ancestor of the canonical head.
	ClassBehind

	// ClassAhead means the canonical head is an ancestor of the local head.
	ClassAhead

	// ClassDiverged means neither head is an ancestor of the other.
	ClassDiverged
)

// String returns a human-readable string representation of the Classification.
func (c Classification) String() string {
	switch c {
	case ClassUpToDate:
		return "up-to-date"
	case ClassBehind:
		return "behind"
	case ClassAhead:
		return "ahead"
	case ClassDiverged:
		return "diverged"
	case ClassError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrUnresolvedRef is returned when classification is attempted with a head
// that could not be resolved.
var ErrUnresolvedRef = errors.New("unresolved reference")

// Ancestry answers whether one commit is an ancestor of another.
// *git.Repo satisfies this interface.
type Ancestry interface {
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
}

// Classify determines the relationship between the local and canonical heads.
// Exactly one of the five classifications is returned: equality means
// up-to-date, strict ancestry in either direction means behind or ahead,
// mutual non-ancestry means diverged, and any resolution failure means error.
func Classify(ctx context.Context, anc Ancestry, local, canonical string) (Classification, error) {
	if local == "" || canonical == "" {
		return ClassError, ErrUnresolvedRef
	}

	if local == canonical {
		return ClassUpToDate, nil
	}

	behind, err := anc.IsAncestor(ctx, local, canonical)
	if err != nil {
		return ClassError, err
	}
	if behind {
		return ClassBehind, nil
	}

	ahead, err := anc.IsAncestor(ctx, canonical, local)
	if err != nil {
		return ClassError, err
	}
	if ahead {
		return ClassAhead, nil
	}

	return ClassDiverged, nil
}
