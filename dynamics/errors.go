package dynamics

import "github.com/pkg/errors"

var (
	// ErrUnsupportedLinkDegree is returned when a link is connected by more joints than
	// wrench-balance assembly supports. This is an unimplemented configuration, not bad
	// input data.
	ErrUnsupportedLinkDegree = errors.New("wrench balance not implemented for links with more than four joints")

	// ErrUnsupportedCollocation is returned for collocation schemes that are named but not
	// implemented.
	ErrUnsupportedCollocation = errors.New("collocation scheme not implemented")
)
