// Package format_dsp0267 implements the DSP0267 PLDM firmware update
// package format: a writer that assembles a package from a manifest plus
// component images, and a reader that reconstructs the manifest.
package format_dsp0267

import (
	"fmt"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// StringType identifies the encoding of a version string field.
type StringType uint8

const (
	StringTypeUnknown StringType = iota
	StringTypeASCII
	StringTypeUTF8
	StringTypeUTF16
	StringTypeUTF16LE
	StringTypeUTF16BE
)

func (t StringType) String() string {
	switch t {
	case StringTypeUnknown:
		return "Unknown"
	case StringTypeASCII:
		return "ASCII"
	case StringTypeUTF8:
		return "UTF8"
	case StringTypeUTF16:
		return "UTF16"
	case StringTypeUTF16LE:
		return "UTF16LE"
	case StringTypeUTF16BE:
		return "UTF16BE"
	default:
		return fmt.Sprintf("StringType(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the enumerated string types.
func (t StringType) Valid() bool {
	return t <= StringTypeUTF16BE
}

// ParseStringType maps a name back to its StringType.
func ParseStringType(name string) (StringType, error) {
	switch name {
	case "Unknown":
		return StringTypeUnknown, nil
	case "ASCII":
		return StringTypeASCII, nil
	case "UTF8":
		return StringTypeUTF8, nil
	case "UTF16":
		return StringTypeUTF16, nil
	case "UTF16LE":
		return StringTypeUTF16LE, nil
	case "UTF16BE":
		return StringTypeUTF16BE, nil
	default:
		return StringTypeUnknown, fmt.Errorf("%w: %q", fwuperrors.ErrBadStringType, name)
	}
}

// MarshalText renders the type by name so manifests stay readable.
func (t StringType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", fwuperrors.ErrBadStringType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *StringType) UnmarshalText(text []byte) error {
	parsed, err := ParseStringType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
