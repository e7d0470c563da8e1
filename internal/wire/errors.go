package wire

import "errors"

var (
	// ErrTruncated is returned when the input ends inside a header or field
	ErrTruncated = errors.New("wire: truncated input")

	// ErrBadMagic is returned when the input does not start with Magic
	ErrBadMagic = errors.New("wire: bad magic")

	// ErrUnsupportedVersion is returned for an unknown envelope version
	ErrUnsupportedVersion = errors.New("wire: unsupported version")

	// ErrWrongKind is returned when the object kind is not the expected one
	ErrWrongKind = errors.New("wire: unexpected object kind")

	// ErrFieldCount is returned when the number of fields does not match
	ErrFieldCount = errors.New("wire: unexpected field count")

	// ErrFieldLength is returned when a fixed-size field has the wrong length
	ErrFieldLength = errors.New("wire: unexpected field length")

	// ErrFieldTooLarge is returned when a field exceeds MaxFieldSize
	ErrFieldTooLarge = errors.New("wire: field too large")

	// ErrNonCanonical is returned for integers with leading zeros or zero value
	ErrNonCanonical = errors.New("wire: non-canonical integer")

	// ErrTrailingData is returned when bytes follow the last field
	ErrTrailingData = errors.New("wire: trailing data")
)
