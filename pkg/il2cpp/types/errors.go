package types

import "github.com/pkg/errors"

// Failure taxonomy shared by every stage of the loader. Stages wrap these
// with context; callers match with errors.Is.
var (
	ErrUnsupportedContainer    = errors.New("unsupported container")
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	ErrAnchorNotFound          = errors.New("unable to find code/metadata registration")
	ErrMalformedMetadata       = errors.New("malformed metadata")
	ErrUnmappedAddress         = errors.New("address is not mapped by any segment")
	ErrIndexOutOfRange         = errors.New("index out of range")
	ErrTypeRecursion           = errors.New("type nesting exceeds maximum depth")
)
