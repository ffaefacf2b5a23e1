package format_dsp0267

// Core format constants that never change. These encode DSP0267
// format revision 2 with the 16-byte UUID header identifier.

var (
	// HeaderIdentifier is the PackageHeaderIdentifier UUID, stored in the
	// package exactly as listed (no endianness swap).
	HeaderIdentifier = []byte{
		0x12, 0x44, 0xD2, 0x64, 0x8D, 0x7D, 0x47, 0x18,
		0xA0, 0x30, 0xFC, 0x8A, 0x56, 0x58, 0x7D, 0x5A,
	}
)

const (
	// FormatRevision - immutable
	FormatRevision = 2

	// Fixed sizes - part of the format specification
	HeaderIdentifierSize = 16 // PackageHeaderIdentifier UUID
	TimestampSize        = 13 // PackageReleaseDateTime
	ChecksumSize         = 4  // trailing CRC32
	UUIDDescriptorSize   = 16 // InitialDescriptorData for the UUID type

	// HeaderSizeOffset is where PackageHeaderSize sits. The writer
	// patches a little-endian uint32 here, clobbering the reserved
	// uint16 at the start of the release timestamp; the reader treats
	// those timestamp bytes as don't-care. Existing packages in the
	// field carry this layout, so it is preserved.
	HeaderSizeOffset = 17

	// ComponentOffsetFieldPos is how far into each component record the
	// ComponentLocationOffset field sits.
	ComponentOffsetFieldPos = 12

	// Limits
	MaxComponents    = 32
	MaxDeviceRecords = 255
	MaxStringLength  = 255

	// Defined option bits
	DeviceUpdateOptionFlagsMask   = 0x00000001 // bit 0 only
	ComponentOptionsMask          = 0x0001     // bit 0 only
	RequestedActivationMethodMask = 0x003F     // bits 0..5
)
