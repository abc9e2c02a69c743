// Package xerr defines the error taxonomy shared by every stage of the
// extraction pipeline: the primitive reader, the tag stream decoder, the
// chunked decompressor, the CAS reader, the layout resolver and the
// TOC/SB parser all fail through one of these.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Truncated is returned when a reader runs out of bytes before a record,
// string or integer it was asked to decode is complete.
var Truncated = errors.New("truncated: unexpected end of stream")

// FormatMismatch is returned when a magic, container length or type code
// does not match what the format requires.
var FormatMismatch = errors.New("format mismatch")

// BundleUnavailable is returned when a part's CAS identifier does not
// resolve to a package or CAS file in either layer. Callers are expected
// to treat this as non-fatal: log it and skip the part. A bundle whose SB
// byte range lies outside the SB file is not reported through this
// error; bundle.LinkSB marks it Available=false instead.
var BundleUnavailable = errors.New("bundle unavailable")

// IoError wraps an underlying filesystem error. Fatal for the containing
// part, non-fatal for the overall run.
var IoError = errors.New("io error")

// DecompressorError wraps an error returned by the external decompression
// primitive. Fatal for the containing part.
var DecompressorError = errors.New("decompressor error")

// UnknownCompressionError is returned when a chunk header carries a
// compression code this title's dialect does not recognize.
type UnknownCompressionError struct {
	Code uint16
}

func (e *UnknownCompressionError) Error() string {
	return fmt.Sprintf("unknown compression code 0x%04x", e.Code)
}

// UnknownCompression builds an UnknownCompressionError for code.
func UnknownCompression(code uint16) error {
	return &UnknownCompressionError{Code: code}
}

// UnknownTypeCodeError is returned when the tag stream decoder meets a
// record type byte it does not recognize. Fatal for the containing
// container.
type UnknownTypeCodeError struct {
	Code byte
}

func (e *UnknownTypeCodeError) Error() string {
	return fmt.Sprintf("unknown tag stream type code 0x%02x", e.Code)
}

// UnknownTypeCode builds an UnknownTypeCodeError for code.
func UnknownTypeCode(code byte) error {
	return &UnknownTypeCodeError{Code: code}
}

// Wrap attaches msg as context to err, preserving its identity for
// errors.Is/errors.As and errors.Cause.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// IsBundleUnavailable reports whether err is, or wraps, BundleUnavailable.
func IsBundleUnavailable(err error) bool {
	return errors.Is(err, BundleUnavailable)
}
