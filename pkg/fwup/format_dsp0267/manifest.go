package format_dsp0267

// PackageManifest is the logical description of a firmware update
// package. The writer consumes one to produce a package; the reader
// produces an independent one from package bytes. Fields marked
// (recorded) are filled in by the reader and recomputed by the writer.
type PackageManifest struct {
	PackageHeaderInformation         PackageHeaderInformation `json:"PackageHeaderInformation"`
	FirmwareDeviceIdentificationArea []DeviceRecord           `json:"FirmwareDeviceIdentificationArea"`
	ComponentImageInformationArea    []ComponentEntry         `json:"ComponentImageInformationArea"`

	// PackageHeaderChecksum is the recorded trailing CRC32.
	PackageHeaderChecksum uint32 `json:"PackageHeaderChecksum,omitempty"`
}

type PackageHeaderInformation struct {
	PackageHeaderIdentifier     HexBlob         `json:"PackageHeaderIdentifier"`
	PackageHeaderFormatRevision uint8           `json:"PackageHeaderFormatRevision"`
	PackageHeaderSize           uint16          `json:"PackageHeaderSize,omitempty"` // (recorded)
	PackageReleaseDateTime      ReleaseDateTime `json:"PackageReleaseDateTime"`
	ComponentBitmapBitLength    uint16          `json:"ComponentBitmapBitLength,omitempty"` // (recorded)
	PackageVersionStringType    StringType      `json:"PackageVersionStringType"`
	PackageVersionString        string          `json:"PackageVersionString"`
}

// DeviceRecord identifies one firmware device and selects which
// components apply to it.
type DeviceRecord struct {
	RecordLength                       uint16     `json:"RecordLength,omitempty"` // (recorded)
	DescriptorCount                    uint8      `json:"DescriptorCount"`
	DeviceUpdateOptionFlags            uint32     `json:"DeviceUpdateOptionFlags"`
	ComponentImageSetVersionStringType StringType `json:"ComponentImageSetVersionStringType"`
	ComponentImageSetVersionString     string     `json:"ComponentImageSetVersionString"`
	FirmwareDevicePackageDataLength    uint16     `json:"FirmwareDevicePackageDataLength"`

	// ApplicableComponents holds the set of component indices this
	// device targets, in place of the on-wire bitmap.
	ApplicableComponents []int `json:"ApplicableComponents"`

	InitialDescriptor     Descriptor   `json:"InitialDescriptor"`
	AdditionalDescriptors []Descriptor `json:"AdditionalDescriptors,omitempty"`
}

// ComponentEntry describes one updatable firmware image.
type ComponentEntry struct {
	Classification            uint16     `json:"ComponentClassification"`
	Identifier                uint16     `json:"ComponentIdentifier"`
	ComparisonStamp           uint32     `json:"ComponentComparisonStamp"`
	Options                   uint16     `json:"ComponentOptions"`
	RequestedActivationMethod uint16     `json:"RequestedComponentActivationMethod"`
	LocationOffset            uint32     `json:"ComponentLocationOffset,omitempty"` // (recorded)
	Size                      uint32     `json:"ComponentSize,omitempty"`           // (recorded)
	VersionStringType         StringType `json:"ComponentVersionStringType"`
	VersionString             string     `json:"ComponentVersionString"`
}
