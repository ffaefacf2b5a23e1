package format_dsp0267

import (
	"encoding/binary"
	"fmt"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// Fixed portions of the on-wire records, excluding variable-length
// bitmap, strings and descriptor data.
const (
	deviceRecordFixedSize    = 2 + 1 + 4 + 1 + 1 + 2         // length, count, flags, str type, str len, pkg data len
	descriptorHeaderSize     = 2 + 2                         // type, length
	componentRecordFixedSize = 2 + 2 + 4 + 2 + 2 + 4 + 4 + 2 // everything up to the version string
)

// packDeviceRecord serializes one device record, RecordLength included,
// for a package whose bitmap fields are bitmapBits wide.
func packDeviceRecord(d *DeviceRecord, bitmapBits uint16) ([]byte, error) {
	bitmap, err := PackBitmap(d.ApplicableComponents, bitmapBits)
	if err != nil {
		return nil, err
	}

	recordLength := deviceRecordFixedSize + len(bitmap) +
		len(d.ComponentImageSetVersionString) +
		descriptorHeaderSize + len(d.InitialDescriptor.Data)
	if recordLength > 0xFFFF {
		return nil, fmt.Errorf("%w: device record is %d bytes",
			fwuperrors.ErrValidation, recordLength)
	}

	buf := make([]byte, 0, recordLength)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(recordLength))
	buf = append(buf, 1) // DescriptorCount: initial descriptor only
	buf = binary.LittleEndian.AppendUint32(buf, d.DeviceUpdateOptionFlags)
	buf = append(buf, uint8(d.ComponentImageSetVersionStringType))
	buf = append(buf, uint8(len(d.ComponentImageSetVersionString)))
	buf = binary.LittleEndian.AppendUint16(buf, 0) // FirmwareDevicePackageDataLength
	buf = append(buf, bitmap...)
	buf = append(buf, d.ComponentImageSetVersionString...)
	buf = binary.LittleEndian.AppendUint16(buf, d.InitialDescriptor.Type)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(d.InitialDescriptor.Data)))
	buf = append(buf, d.InitialDescriptor.Data...)

	return buf, nil
}

// packComponentRecord serializes one component record with zeroed
// ComponentLocationOffset and ComponentSize placeholders; the writer
// patches both once the header length is known.
func packComponentRecord(c *ComponentEntry) []byte {
	buf := make([]byte, 0, componentRecordFixedSize+len(c.VersionString))
	buf = binary.LittleEndian.AppendUint16(buf, c.Classification)
	buf = binary.LittleEndian.AppendUint16(buf, c.Identifier)
	buf = binary.LittleEndian.AppendUint32(buf, 0xFFFFFFFF) // ComponentComparisonStamp
	buf = binary.LittleEndian.AppendUint16(buf, c.Options)
	buf = binary.LittleEndian.AppendUint16(buf, c.RequestedActivationMethod)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // ComponentLocationOffset placeholder
	buf = binary.LittleEndian.AppendUint32(buf, 0) // ComponentSize placeholder
	buf = append(buf, uint8(c.VersionStringType))
	buf = append(buf, uint8(len(c.VersionString)))
	buf = append(buf, c.VersionString...)
	return buf
}
