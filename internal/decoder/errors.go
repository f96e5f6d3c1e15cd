package decoder

import "errors"

// ErrResourceExhausted marks a buffer too short (or a length prefix too
// large) for the next extraction. It means the wire layout and the schema
// have desynchronized, e.g. a truncated capture or mismatched capacities;
// retrying the same bytes cannot succeed.
var ErrResourceExhausted = errors.New("insufficient bytes in event buffer")

// ErrInternal marks an unknown or out-of-range scalar kind reaching
// projection. It indicates a schema-compiler defect, never a data
// condition.
var ErrInternal = errors.New("internal decoder error")
