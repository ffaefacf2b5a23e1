package format_dsp0267

import (
	"encoding/hex"
	"fmt"
	"time"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// Metadata is the JSON description the packager consumes. Option and
// activation-method fields are lists of bit indices, and a device's
// ApplicableComponents lists component identifiers, not indices; both
// are resolved into the manifest's wire-level values here.
type Metadata struct {
	PackageHeaderInformation         MetadataHeader      `json:"PackageHeaderInformation"`
	FirmwareDeviceIdentificationArea []MetadataDevice    `json:"FirmwareDeviceIdentificationArea"`
	ComponentImageInformationArea    []MetadataComponent `json:"ComponentImageInformationArea"`
}

type MetadataHeader struct {
	PackageVersionString string `json:"PackageVersionString"`
}

type MetadataDevice struct {
	DeviceUpdateOptionFlags        []int              `json:"DeviceUpdateOptionFlags"`
	ComponentImageSetVersionString string             `json:"ComponentImageSetVersionString"`
	ApplicableComponents           []int              `json:"ApplicableComponents"`
	InitialDescriptor              MetadataDescriptor `json:"InitialDescriptor"`
}

type MetadataDescriptor struct {
	InitialDescriptorType int    `json:"InitialDescriptorType"`
	InitialDescriptorData string `json:"InitialDescriptorData"`
}

type MetadataComponent struct {
	ComponentClassification            int    `json:"ComponentClassification"`
	ComponentIdentifier                int    `json:"ComponentIdentifier"`
	ComponentOptions                   []int  `json:"ComponentOptions"`
	RequestedComponentActivationMethod []int  `json:"RequestedComponentActivationMethod"`
	ComponentVersionString             string `json:"ComponentVersionString"`
}

// Manifest resolves the metadata into a writable PackageManifest,
// stamped with the given release time. All version strings are ASCII.
func (m *Metadata) Manifest(releaseTime time.Time) (*PackageManifest, error) {
	manifest := &PackageManifest{
		PackageHeaderInformation: PackageHeaderInformation{
			PackageHeaderIdentifier:     HexBlob(HeaderIdentifier),
			PackageHeaderFormatRevision: FormatRevision,
			PackageReleaseDateTime:      ReleaseDateTimeOf(releaseTime),
			PackageVersionStringType:    StringTypeASCII,
			PackageVersionString:        m.PackageHeaderInformation.PackageVersionString,
		},
	}

	for i, comp := range m.ComponentImageInformationArea {
		if comp.ComponentClassification < 0 || comp.ComponentClassification > 0xFFFF {
			return nil, fmt.Errorf("%w: component %d classification 0x%x outside [0x0000, 0xFFFF]",
				fwuperrors.ErrValidation, i, comp.ComponentClassification)
		}
		if comp.ComponentIdentifier < 0 || comp.ComponentIdentifier > 0xFFFF {
			return nil, fmt.Errorf("%w: component %d identifier 0x%x outside [0x0000, 0xFFFF]",
				fwuperrors.ErrValidation, i, comp.ComponentIdentifier)
		}
		options, err := PackFlagBits(comp.ComponentOptions, 16)
		if err != nil {
			return nil, fmt.Errorf("component %d options: %w", i, err)
		}
		activation, err := PackFlagBits(comp.RequestedComponentActivationMethod, 16)
		if err != nil {
			return nil, fmt.Errorf("component %d activation method: %w", i, err)
		}
		manifest.ComponentImageInformationArea = append(manifest.ComponentImageInformationArea, ComponentEntry{
			Classification:            uint16(comp.ComponentClassification),
			Identifier:                uint16(comp.ComponentIdentifier),
			ComparisonStamp:           0xFFFFFFFF,
			Options:                   uint16(options),
			RequestedActivationMethod: uint16(activation),
			VersionStringType:         StringTypeASCII,
			VersionString:             comp.ComponentVersionString,
		})
	}

	for i, dev := range m.FirmwareDeviceIdentificationArea {
		flags, err := PackFlagBits(dev.DeviceUpdateOptionFlags, 32)
		if err != nil {
			return nil, fmt.Errorf("device record %d update option flags: %w", i, err)
		}
		descriptorData, err := hex.DecodeString(dev.InitialDescriptor.InitialDescriptorData)
		if err != nil {
			return nil, fmt.Errorf("%w: device record %d descriptor data is not hex: %v",
				fwuperrors.ErrValidation, i, err)
		}
		manifest.FirmwareDeviceIdentificationArea = append(manifest.FirmwareDeviceIdentificationArea, DeviceRecord{
			DescriptorCount:                    1,
			DeviceUpdateOptionFlags:            uint32(flags),
			ComponentImageSetVersionStringType: StringTypeASCII,
			ComponentImageSetVersionString:     dev.ComponentImageSetVersionString,
			ApplicableComponents:               m.applicableIndices(dev.ApplicableComponents),
			InitialDescriptor: Descriptor{
				Type: uint16(dev.InitialDescriptor.InitialDescriptorType),
				Data: descriptorData,
			},
		})
	}

	return manifest, nil
}

// applicableIndices maps a list of component identifiers onto the
// indices of the matching component entries. Bit order follows the
// component area order, not the identifier list order; identifiers that
// match no component are skipped.
func (m *Metadata) applicableIndices(identifiers []int) []int {
	var indices []int
	for idx, comp := range m.ComponentImageInformationArea {
		for _, id := range identifiers {
			if comp.ComponentIdentifier == id {
				indices = append(indices, idx)
				break
			}
		}
	}
	return indices
}
