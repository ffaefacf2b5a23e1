package format_dsp0267

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hashicorp/go-hclog"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// ImageSource supplies one component image. Size is authoritative: the
// writer records it in the component record before streaming Data.
type ImageSource struct {
	Size int64
	Data io.Reader
}

// ImageFromBytes wraps an in-memory image.
func ImageFromBytes(data []byte) ImageSource {
	return ImageSource{Size: int64(len(data)), Data: bytes.NewReader(data)}
}

// patchSite is a placeholder reserved during the streaming pass and
// rewritten once the downstream quantity is known.
type patchSite struct {
	offset int64
	encode func() []byte
}

// WritePackage serializes the manifest and the component images to out
// as a DSP0267 package. images must have one entry per component entry,
// in component order. The manifest is validated in full before the
// first byte is written; on any later error the partially written sink
// is the caller's to discard.
func WritePackage(out io.ReadWriteSeeker, manifest *PackageManifest, images []ImageSource, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if err := validateManifest(manifest, images); err != nil {
		return err
	}

	components := manifest.ComponentImageInformationArea
	devices := manifest.FirmwareDeviceIdentificationArea
	bitmapBits := BitmapBitLength(len(components))

	logger.Debug("📦 Assembling package header",
		"components", len(components),
		"devices", len(devices),
		"bitmap_bits", bitmapBits)

	// Package header information. PackageHeaderSize starts as a zero
	// u16 placeholder and is patched as a u32 at the end.
	head := make([]byte, 0, 64)
	head = append(head, HeaderIdentifier...)
	head = append(head, FormatRevision)
	head = binary.LittleEndian.AppendUint16(head, 0)
	head = append(head, manifest.PackageHeaderInformation.PackageReleaseDateTime.Pack()...)
	head = binary.LittleEndian.AppendUint16(head, bitmapBits)
	head = append(head, uint8(manifest.PackageHeaderInformation.PackageVersionStringType))
	head = append(head, uint8(len(manifest.PackageHeaderInformation.PackageVersionString)))
	head = append(head, manifest.PackageHeaderInformation.PackageVersionString...)
	head = append(head, uint8(len(devices)))
	if _, err := out.Write(head); err != nil {
		return err
	}

	for i := range devices {
		record, err := packDeviceRecord(&devices[i], bitmapBits)
		if err != nil {
			return fmt.Errorf("device record %d: %w", i, err)
		}
		if _, err := out.Write(record); err != nil {
			return err
		}
	}

	// Component records carry zeroed ComponentLocationOffset and
	// ComponentSize; remember where each pair sits.
	var count [2]byte
	binary.LittleEndian.PutUint16(count[:], uint16(len(components)))
	if _, err := out.Write(count[:]); err != nil {
		return err
	}
	offsetSites := make([]int64, len(components))
	for i := range components {
		pos, err := out.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		offsetSites[i] = pos + ComponentOffsetFieldPos
		if _, err := out.Write(packComponentRecord(&components[i])); err != nil {
			return err
		}
	}

	// End of the component area. Images begin after the CRC32 word, so
	// the header size and the first image offset land 4 bytes further.
	imageStart, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	headerSize := imageStart + ChecksumSize
	logger.Debug("🔩 Patching forward references",
		"header_size", headerSize,
		"component_offsets", len(offsetSites))

	patches := []patchSite{
		{offset: HeaderSizeOffset, encode: func() []byte {
			// u32 on purpose: spills into the reserved timestamp u16,
			// matching packages already in the field.
			return binary.LittleEndian.AppendUint32(nil, uint32(headerSize))
		}},
	}
	location := headerSize
	for i := range components {
		offset, size := location, images[i].Size
		patches = append(patches, patchSite{offset: offsetSites[i], encode: func() []byte {
			buf := binary.LittleEndian.AppendUint32(nil, uint32(offset))
			return binary.LittleEndian.AppendUint32(buf, uint32(size))
		}})
		location += size
	}
	for _, p := range patches {
		if _, err := out.Seek(p.offset, io.SeekStart); err != nil {
			return err
		}
		if _, err := out.Write(p.encode()); err != nil {
			return err
		}
	}

	// Checksum covers every header byte before the CRC32 word itself.
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return err
	}
	h := crc32.NewIEEE()
	if _, err := io.CopyN(h, out, imageStart); err != nil {
		return err
	}
	checksum := h.Sum32()
	logger.Debug("🔐 Header checksum", "crc32", fmt.Sprintf("0x%08x", checksum))
	if _, err := out.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if _, err := out.Write(binary.LittleEndian.AppendUint32(nil, checksum)); err != nil {
		return err
	}

	for i, img := range images {
		imgSum := crc32.NewIEEE()
		n, err := io.Copy(out, io.TeeReader(io.LimitReader(img.Data, img.Size), imgSum))
		if err != nil {
			return fmt.Errorf("component image %d: %w", i, err)
		}
		if n != img.Size {
			return fmt.Errorf("component image %d: wrote %d of %d bytes: %w",
				i, n, img.Size, io.ErrUnexpectedEOF)
		}
		logger.Debug("✍️ Appended component image",
			"index", i,
			"size", n,
			"checksum", FormatChecksum(ChecksumCRC32, imgSum.Sum(nil)))
	}

	logger.Debug("✅ Package written",
		"header_size", headerSize,
		"total_size", location)
	return nil
}

// validateManifest enforces the format limits before anything touches
// the sink.
func validateManifest(manifest *PackageManifest, images []ImageSource) error {
	info := &manifest.PackageHeaderInformation
	if len(info.PackageHeaderIdentifier) != 0 &&
		!bytes.Equal(info.PackageHeaderIdentifier, HeaderIdentifier) {
		return fmt.Errorf("%w: package header identifier %s",
			fwuperrors.ErrValidation, info.PackageHeaderIdentifier)
	}
	if info.PackageHeaderFormatRevision != 0 && info.PackageHeaderFormatRevision != FormatRevision {
		return fmt.Errorf("%w: format revision %d, this codec writes revision %d",
			fwuperrors.ErrValidation, info.PackageHeaderFormatRevision, FormatRevision)
	}
	if err := checkVersionString(info.PackageVersionStringType, info.PackageVersionString); err != nil {
		return fmt.Errorf("package version string: %w", err)
	}

	components := manifest.ComponentImageInformationArea
	devices := manifest.FirmwareDeviceIdentificationArea
	if len(components) > MaxComponents {
		return fmt.Errorf("%w: %d", fwuperrors.ErrTooManyComponents, len(components))
	}
	if len(devices) > MaxDeviceRecords {
		return fmt.Errorf("%w: %d", fwuperrors.ErrTooManyDeviceRecords, len(devices))
	}
	if len(images) != len(components) {
		return fmt.Errorf("%w: %d images for %d components",
			fwuperrors.ErrImageCountMismatch, len(images), len(components))
	}

	for i := range devices {
		d := &devices[i]
		if err := checkVersionString(d.ComponentImageSetVersionStringType, d.ComponentImageSetVersionString); err != nil {
			return fmt.Errorf("device record %d: %w", i, err)
		}
		if d.DeviceUpdateOptionFlags&^DeviceUpdateOptionFlagsMask != 0 {
			return fmt.Errorf("%w: device record %d update option flags 0x%08x",
				fwuperrors.ErrUnsupportedOptionBit, i, d.DeviceUpdateOptionFlags)
		}
		if d.InitialDescriptor.Type != DescriptorTypeUUID {
			return fmt.Errorf("%w: device record %d has type 0x%04x",
				fwuperrors.ErrBadDescriptorType, i, d.InitialDescriptor.Type)
		}
		if len(d.InitialDescriptor.Data) != UUIDDescriptorSize {
			return fmt.Errorf("%w: device record %d has %d bytes",
				fwuperrors.ErrBadDescriptorLength, i, len(d.InitialDescriptor.Data))
		}
		if d.DescriptorCount > 1 || len(d.AdditionalDescriptors) > 0 {
			return fmt.Errorf("%w: device record %d", fwuperrors.ErrExtraDescriptors, i)
		}
		for _, idx := range d.ApplicableComponents {
			if idx < 0 || idx >= len(components) {
				return fmt.Errorf("%w: device record %d references component %d of %d",
					fwuperrors.ErrBadComponentIndex, i, idx, len(components))
			}
		}
	}

	var imageBytes int64
	for i := range components {
		c := &components[i]
		if err := checkVersionString(c.VersionStringType, c.VersionString); err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		if c.Options&^ComponentOptionsMask != 0 {
			return fmt.Errorf("%w: component %d options 0x%04x",
				fwuperrors.ErrUnsupportedOptionBit, i, c.Options)
		}
		if c.RequestedActivationMethod&^RequestedActivationMethodMask != 0 {
			return fmt.Errorf("%w: component %d activation method 0x%04x",
				fwuperrors.ErrUnsupportedOptionBit, i, c.RequestedActivationMethod)
		}
		if images[i].Size < 0 || images[i].Size > 0xFFFFFFFF {
			return fmt.Errorf("%w: component image %d size %d does not fit a uint32",
				fwuperrors.ErrValidation, i, images[i].Size)
		}
		imageBytes += images[i].Size
	}
	if imageBytes > 0xFFFFFFFF {
		return fmt.Errorf("%w: combined image size %d exceeds the uint32 offset space",
			fwuperrors.ErrValidation, imageBytes)
	}

	return nil
}

// checkVersionString enforces the writer's string rules: ASCII type,
// ASCII bytes, at most 255 of them.
func checkVersionString(t StringType, s string) error {
	if t != StringTypeASCII {
		return fmt.Errorf("%w: string type %s, the writer emits ASCII only",
			fwuperrors.ErrValidation, t)
	}
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: %d bytes", fwuperrors.ErrStringTooLong, len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return fmt.Errorf("%w: byte %d", fwuperrors.ErrStringNotASCII, i)
		}
	}
	return nil
}
