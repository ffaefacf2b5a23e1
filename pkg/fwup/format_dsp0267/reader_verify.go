package format_dsp0267

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// VerifyChecksum recomputes the header CRC32 and compares it with the
// recorded trailer. Parsing never checks the checksum; this is the
// opt-in integrity pass.
func (r *Reader) VerifyChecksum() error {
	manifest, err := r.ReadManifest()
	if err != nil {
		return err
	}

	headerSize := int(manifest.PackageHeaderInformation.PackageHeaderSize)
	if headerSize < ChecksumSize || headerSize > len(r.buf) {
		return fmt.Errorf("%w: recorded header size %d in a %d-byte package",
			fwuperrors.ErrMalformedPackage, headerSize, len(r.buf))
	}

	computed := crc32.ChecksumIEEE(r.buf[:headerSize-ChecksumSize])
	recorded := binary.LittleEndian.Uint32(r.buf[headerSize-ChecksumSize : headerSize])
	if computed != recorded {
		return fmt.Errorf("%w: computed 0x%08x, recorded 0x%08x",
			fwuperrors.ErrChecksumMismatch, computed, recorded)
	}

	r.logger.Debug("Header checksum verified", "crc32", fmt.Sprintf("0x%08x", computed))
	return nil
}

// VerifyImageBounds checks the component offset chain: the first image
// starts where the header ends, images are contiguous, and every image
// lies inside the package.
func (r *Reader) VerifyImageBounds() error {
	manifest, err := r.ReadManifest()
	if err != nil {
		return err
	}

	expected := uint64(manifest.PackageHeaderInformation.PackageHeaderSize)
	for i, c := range manifest.ComponentImageInformationArea {
		offset, size := uint64(c.LocationOffset), uint64(c.Size)
		if offset != expected {
			return fmt.Errorf("%w: component %d at offset %d, expected %d",
				fwuperrors.ErrMalformedPackage, i, offset, expected)
		}
		if offset+size > uint64(len(r.buf)) {
			return fmt.Errorf("%w: component %d spans [%d, %d) in a %d-byte package",
				fwuperrors.ErrMalformedPackage, i, offset, offset+size, len(r.buf))
		}
		expected = offset + size
	}

	r.logger.Debug("Component image bounds verified",
		"components", len(manifest.ComponentImageInformationArea),
		"package_end", expected)
	return nil
}
