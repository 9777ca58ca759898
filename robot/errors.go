package robot

import "github.com/pkg/errors"

var (
	// ErrMalformedStructure is returned at construction time when a structural description
	// references unknown links or leaves links unreachable from the base.
	ErrMalformedStructure = errors.New("malformed robot structure")

	// ErrInvalidEndpoint is returned when a joint is queried for a link it does not connect.
	ErrInvalidEndpoint = errors.New("link is not an endpoint of this joint")

	// ErrNoSuchJoint is returned when no joint directly connects two queried links.
	ErrNoSuchJoint = errors.New("no joint directly connects the given links")

	// ErrAmbiguousJoint is returned when more than one joint directly connects two queried
	// links and the query cannot pick one.
	ErrAmbiguousJoint = errors.New("more than one joint directly connects the given links")
)
