package jxr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedBitstream is the category every decode failure belongs to.
// The more specific sentinels below wrap it, so callers can test with
// errors.Is(err, ErrMalformedBitstream) regardless of the cause.
var ErrMalformedBitstream = errors.New("jxr: malformed bitstream")

var (
	ErrInvalidSignature  = wrapSentinel("invalid signature")
	ErrUnsupportedFormat = wrapSentinel("unsupported format")
	ErrTruncatedData     = wrapSentinel("truncated data")
	ErrOutOfRange        = wrapSentinel("value out of range")
	ErrImageTooLarge     = wrapSentinel("image dimensions exceed limit")
)

func wrapSentinel(msg string) error {
	return fmt.Errorf("%w: %s", ErrMalformedBitstream, msg)
}

// malformedf reports a syntax element that cannot be decoded.
func malformedf(format string, args ...any) error {
	return errors.Wrapf(ErrMalformedBitstream, format, args...)
}

// unsupportedf reports a recognized feature outside the decoded subset.
func unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedFormat, format, args...)
}

// rangef reports a decoded value outside its legal range.
func rangef(format string, args ...any) error {
	return errors.Wrapf(ErrOutOfRange, format, args...)
}
