package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every validation, parse and checksum failure returned by
// the codec wraps exactly one of these, so callers classify with
// errors.Is. I/O errors, JSON decoding errors and a request for a
// component index the package does not have wrap none of them.
var (
	// Manifest validation 📋
	ErrValidation = errors.New("❌ invalid package manifest")

	// Package parsing 📦
	ErrMalformedPackage = errors.New("❌ malformed package")

	// Integrity 🔒
	ErrChecksumMismatch = errors.New("❌ package header checksum mismatch")
)

// Specific validation failures.
var (
	ErrStringTooLong        = fmt.Errorf("%w: version string exceeds 255 bytes", ErrValidation)
	ErrStringNotASCII       = fmt.Errorf("%w: version string is not ASCII", ErrValidation)
	ErrTooManyComponents    = fmt.Errorf("%w: more than 32 components", ErrValidation)
	ErrTooManyDeviceRecords = fmt.Errorf("%w: more than 255 device records", ErrValidation)
	ErrImageCountMismatch   = fmt.Errorf("%w: image count does not match component count", ErrValidation)
	ErrBadDescriptorType    = fmt.Errorf("%w: only the UUID initial descriptor is supported", ErrValidation)
	ErrBadDescriptorLength  = fmt.Errorf("%w: UUID descriptor data must be 16 bytes", ErrValidation)
	ErrExtraDescriptors     = fmt.Errorf("%w: additional descriptors are not supported", ErrValidation)
	ErrUnsupportedOptionBit = fmt.Errorf("%w: option bit outside the defined set", ErrValidation)
	ErrBadComponentIndex    = fmt.Errorf("%w: applicable component index out of range", ErrValidation)
)

// Specific parse failures.
var (
	ErrShortRead           = fmt.Errorf("%w: unexpected end of package", ErrMalformedPackage)
	ErrBadStringType       = fmt.Errorf("%w: unknown version string type", ErrMalformedPackage)
	ErrZeroDescriptorCount = fmt.Errorf("%w: descriptor count is zero", ErrMalformedPackage)
)
