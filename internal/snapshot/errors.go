package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant marks a structural defect in a snapshot tree, such as
	// duplicate child names or a child whose path does not extend its parent.
	ErrInvariant = errors.New("snapshot: structural invariant violated")
	// ErrOverlap marks declared roots that overlap in a way that cannot be
	// reduced to plain ancestor containment.
	ErrOverlap = errors.New("snapshot: ambiguous root overlap")
)

// InvariantError reports a structural invariant violation at Path.
type InvariantError struct {
	Path   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("snapshot: invariant violated at %q: %s", e.Path, e.Reason)
}

// Is lets errors.Is match ErrInvariant.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

// OverlapError reports two roots of one property whose relationship is not
// resolvable. Other is empty when the root path itself is unusable.
type OverlapError struct {
	Path   string
	Other  string
	Reason string
}

func (e *OverlapError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("snapshot: root %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("snapshot: root %q overlaps %q: %s", e.Path, e.Other, e.Reason)
}

// Is lets errors.Is match ErrOverlap.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}
