package header

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat indicates the stream does not start like any header layout.
	ErrUnknownFormat = errors.New("unrecognized header layout")

	// ErrChecksum indicates a framed header whose CRC does not match its content.
	ErrChecksum = errors.New("header checksum mismatch")
)

// FormatError indicates the input does not follow the header grammar.
type FormatError struct {
	// Offset is the number of header bytes read when the problem was found.
	Offset int64
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed header at byte %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
