package ezip

import (
	"errors"
	"fmt"

	"github.com/huffzip/ezip/header"
	"github.com/huffzip/ezip/huffman"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrFormat means the input is not a recognized compressed stream.
	ErrFormat = errors.New("not a recognized compressed stream")

	// ErrInternal means the encoder met a byte it has no code for. It points
	// to a bug, or to input that changed between the two passes.
	ErrInternal = errors.New("internal consistency error")

	// ErrIO means the underlying storage failed.
	ErrIO = errors.New("i/o error")
)

// Kind classifies an Error.
type Kind uint8

const (
	KindIO Kind = iota + 1
	KindFormat
	KindInternal
)

func (k Kind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindInternal:
		return ErrInternal
	}
	return ErrIO
}

// Pass names the stage of a run that failed.
type Pass string

const (
	PassOpen     Pass = "open"
	PassAnalysis Pass = "analysis"
	PassHeader   Pass = "header"
	PassPayload  Pass = "payload"
)

// Error is returned by every operation of this package.
type Error struct {
	Kind Kind
	Pass Pass
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ezip: %s pass: %v: %v", e.Pass, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// classify wraps err into an *Error, picking the kind from what the lower
// layers returned.
func classify(pass Pass, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var (
		formatErr  *header.FormatError
		missingErr *huffman.MissingCodeError
		dupErr     *huffman.DuplicateSymbolError
	)
	kind := KindIO
	switch {
	case errors.As(err, &formatErr),
		errors.Is(err, huffman.ErrTruncated),
		errors.Is(err, huffman.ErrWeightOverflow),
		errors.As(err, &dupErr):
		kind = KindFormat
	case errors.As(err, &missingErr):
		kind = KindInternal
	}
	return &Error{Kind: kind, Pass: pass, Err: err}
}
