package format_dsp0267

import (
	"encoding/hex"
	"fmt"
)

// DescriptorTypeUUID is the only initial descriptor type the writer
// accepts. The reader passes every type through.
const DescriptorTypeUUID = 0x0002

// descriptorTypeInfo describes a descriptor type from DSP0267 table 8.
// Used for presentation and validation only.
type descriptorTypeInfo struct {
	name   string
	length int
}

var descriptorTypes = map[uint16]descriptorTypeInfo{
	0x0000: {"PCI Vendor ID", 2},
	0x0001: {"IANA Enterprise ID", 4},
	0x0002: {"UUID", 16},
	0x0003: {"PnP Vendor ID", 3},
	0x0004: {"ACPI Vendor ID", 4},
	0x0100: {"PCI Device ID", 2},
	0x0101: {"PCI Subsystem Vendor ID", 2},
	0x0102: {"PCI Subsystem ID", 2},
	0x0103: {"PCI Revision ID", 1},
	0x0104: {"PnP Product Identifier", 4},
	0x0105: {"ACPI Product Identifier", 4},
}

// DescriptorTypeName returns the DSP0267 name for a descriptor type.
func DescriptorTypeName(t uint16) string {
	if info, ok := descriptorTypes[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(0x%04x)", t)
}

// DescriptorTypeLength returns the defined data length for a descriptor
// type, or -1 when the type is not in the table.
func DescriptorTypeLength(t uint16) int {
	if info, ok := descriptorTypes[t]; ok {
		return info.length
	}
	return -1
}

// Descriptor is one typed device identifier.
type Descriptor struct {
	Type uint16  `json:"Type"`
	Data HexBlob `json:"Data"`
}

// TypeName returns the presentation name of the descriptor type.
func (d Descriptor) TypeName() string {
	return DescriptorTypeName(d.Type)
}

// HexBlob is an opaque byte string rendered as hex in manifests
// (UUIDs, descriptor data).
type HexBlob []byte

func (b HexBlob) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(dst, b)
	return dst, nil
}

func (b *HexBlob) UnmarshalText(text []byte) error {
	dst := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(dst, text); err != nil {
		return err
	}
	*b = dst
	return nil
}

func (b HexBlob) String() string {
	return hex.EncodeToString(b)
}
