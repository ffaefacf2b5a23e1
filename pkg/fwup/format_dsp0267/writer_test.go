package format_dsp0267

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

var testUUID = mustHex("00112233445566778899AABBCCDDEEFF")

func mustHex(s string) []byte {
	var b HexBlob
	if err := b.UnmarshalText([]byte(s)); err != nil {
		panic(err)
	}
	return b
}

// testManifest builds a writable manifest with componentCount
// components and one device record applicable to all of them, using a
// fixed release time so output is reproducible.
func testManifest(componentCount int) *PackageManifest {
	manifest := &PackageManifest{
		PackageHeaderInformation: PackageHeaderInformation{
			PackageHeaderIdentifier:     HexBlob(HeaderIdentifier),
			PackageHeaderFormatRevision: FormatRevision,
			PackageReleaseDateTime: ReleaseDateTime{
				Microseconds: 123456,
				Second:       30,
				Minute:       15,
				Hour:         12,
				Day:          1,
				Month:        6,
				Year:         2024,
			},
			PackageVersionStringType: StringTypeASCII,
			PackageVersionString:     "v1",
		},
	}

	applicable := make([]int, componentCount)
	for i := 0; i < componentCount; i++ {
		applicable[i] = i
		manifest.ComponentImageInformationArea = append(manifest.ComponentImageInformationArea, ComponentEntry{
			Classification:            0x000A,
			Identifier:                uint16(0x0100 + i),
			ComparisonStamp:           0xFFFFFFFF,
			Options:                   0x0001,
			RequestedActivationMethod: 0x0020,
			VersionStringType:         StringTypeASCII,
			VersionString:             "v1",
		})
	}
	manifest.FirmwareDeviceIdentificationArea = []DeviceRecord{{
		DescriptorCount:                    1,
		DeviceUpdateOptionFlags:            0x00000001,
		ComponentImageSetVersionStringType: StringTypeASCII,
		ComponentImageSetVersionString:     "v1",
		ApplicableComponents:               applicable,
		InitialDescriptor:                  Descriptor{Type: DescriptorTypeUUID, Data: testUUID},
	}}
	return manifest
}

// writePackageBytes runs the writer against a temp file and returns
// the package bytes.
func writePackageBytes(t *testing.T, manifest *PackageManifest, images [][]byte) []byte {
	t.Helper()

	out, err := os.Create(filepath.Join(t.TempDir(), "pkg.bin"))
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	defer out.Close()

	sources := make([]ImageSource, len(images))
	for i, img := range images {
		sources[i] = ImageFromBytes(img)
	}
	if err := WritePackage(out, manifest, sources, nil); err != nil {
		t.Fatalf("WritePackage failed: %v", err)
	}

	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatalf("read sink back: %v", err)
	}
	return data
}

func TestWriteMinimalPackage(t *testing.T) {
	image := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := writePackageBytes(t, testManifest(1), [][]byte{image})

	manifest, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	info := manifest.PackageHeaderInformation
	if !bytes.Equal(info.PackageHeaderIdentifier, HeaderIdentifier) {
		t.Errorf("identifier = %s", info.PackageHeaderIdentifier)
	}
	if info.PackageHeaderFormatRevision != 2 {
		t.Errorf("format revision = %d, want 2", info.PackageHeaderFormatRevision)
	}
	if info.ComponentBitmapBitLength != 8 {
		t.Errorf("ComponentBitmapBitLength = %d, want 8", info.ComponentBitmapBitLength)
	}

	device := manifest.FirmwareDeviceIdentificationArea[0]
	if len(device.ApplicableComponents) != 1 || device.ApplicableComponents[0] != 0 {
		t.Errorf("ApplicableComponents = %v, want [0]", device.ApplicableComponents)
	}
	if device.InitialDescriptor.Type != DescriptorTypeUUID ||
		!bytes.Equal(device.InitialDescriptor.Data, testUUID) {
		t.Errorf("initial descriptor = %+v", device.InitialDescriptor)
	}

	component := manifest.ComponentImageInformationArea[0]
	if component.Size != uint32(len(image)) {
		t.Errorf("component size = %d, want %d", component.Size, len(image))
	}
	if component.LocationOffset != uint32(info.PackageHeaderSize) {
		t.Errorf("first component at %d, header ends at %d",
			component.LocationOffset, info.PackageHeaderSize)
	}
	if component.ComparisonStamp != 0xFFFFFFFF {
		t.Errorf("comparison stamp = 0x%08x, want 0xFFFFFFFF", component.ComparisonStamp)
	}
	if got := data[component.LocationOffset:]; !bytes.Equal(got, image) {
		t.Errorf("image bytes = %x, want %x", got, image)
	}
}

func TestWriteHeaderSizePatch(t *testing.T) {
	data := writePackageBytes(t, testManifest(1), [][]byte{{0x01}})

	manifest, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	headerSize := uint32(manifest.PackageHeaderInformation.PackageHeaderSize)

	// The writer patches a u32 at offset 17; the high half spills into
	// the reserved timestamp bytes.
	if got := binary.LittleEndian.Uint32(data[HeaderSizeOffset:]); got != headerSize {
		t.Errorf("u32 at offset 17 = %d, want %d", got, headerSize)
	}
	if data[19] != 0 || data[20] != 0 {
		t.Errorf("spill bytes = %x, want zero for a small header", data[19:21])
	}
}

func TestWriteChecksumLaw(t *testing.T) {
	data := writePackageBytes(t, testManifest(2), [][]byte{{1, 2, 3}, {4, 5}})

	manifest, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	h := int(manifest.PackageHeaderInformation.PackageHeaderSize)

	computed := crc32.ChecksumIEEE(data[:h-ChecksumSize])
	recorded := binary.LittleEndian.Uint32(data[h-ChecksumSize : h])
	if computed != recorded {
		t.Errorf("crc32 over header = 0x%08x, trailer = 0x%08x", computed, recorded)
	}
	if recorded != manifest.PackageHeaderChecksum {
		t.Errorf("manifest checksum = 0x%08x, trailer = 0x%08x",
			manifest.PackageHeaderChecksum, recorded)
	}
}

func TestWriteOffsetChain(t *testing.T) {
	images := [][]byte{
		bytes.Repeat([]byte{0xAA}, 100),
		bytes.Repeat([]byte{0xBB}, 200),
		bytes.Repeat([]byte{0xCC}, 50),
	}
	data := writePackageBytes(t, testManifest(3), images)

	manifest, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	h := uint32(manifest.PackageHeaderInformation.PackageHeaderSize)

	expected := []uint32{h, h + 100, h + 300}
	for i, component := range manifest.ComponentImageInformationArea {
		if component.LocationOffset != expected[i] {
			t.Errorf("component %d offset = %d, want %d", i, component.LocationOffset, expected[i])
		}
		got := data[component.LocationOffset : component.LocationOffset+component.Size]
		if !bytes.Equal(got, images[i]) {
			t.Errorf("component %d image bytes differ", i)
		}
	}
	if len(data) != int(h)+350 {
		t.Errorf("package length = %d, want %d", len(data), int(h)+350)
	}
}

func TestWriteBitmapRounding(t *testing.T) {
	images := make([][]byte, 9)
	for i := range images {
		images[i] = []byte{byte(i)}
	}
	manifest := testManifest(9)
	manifest.FirmwareDeviceIdentificationArea[0].ApplicableComponents = []int{0, 3, 8}

	data := writePackageBytes(t, manifest, images)
	decoded, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	if got := decoded.PackageHeaderInformation.ComponentBitmapBitLength; got != 16 {
		t.Errorf("ComponentBitmapBitLength = %d, want 16", got)
	}
	device := decoded.FirmwareDeviceIdentificationArea[0]
	if fmt.Sprint(device.ApplicableComponents) != "[0 3 8]" {
		t.Errorf("ApplicableComponents = %v, want [0 3 8]", device.ApplicableComponents)
	}
}

func TestWriteRecordLengthLaw(t *testing.T) {
	data := writePackageBytes(t, testManifest(1), [][]byte{{0x01}})

	manifest, err := NewBytes(data, nil).ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	device := manifest.FirmwareDeviceIdentificationArea[0]

	// fixed fields + 1 bitmap byte + "v1" + {type,length} + UUID data
	expected := uint16(deviceRecordFixedSize + 1 + 2 + descriptorHeaderSize + 16)
	if device.RecordLength != expected {
		t.Errorf("RecordLength = %d, want %d", device.RecordLength, expected)
	}
}

func TestWriteValidationErrors(t *testing.T) {
	oneImage := [][]byte{{0x01}}

	testCases := []struct {
		name     string
		mutate   func(m *PackageManifest) [][]byte
		expected error
	}{
		{
			name: "oversized package version string",
			mutate: func(m *PackageManifest) [][]byte {
				m.PackageHeaderInformation.PackageVersionString = strings.Repeat("x", 300)
				return oneImage
			},
			expected: fwuperrors.ErrStringTooLong,
		},
		{
			name: "non-ASCII version string",
			mutate: func(m *PackageManifest) [][]byte {
				m.ComponentImageInformationArea[0].VersionString = "v1\xff"
				return oneImage
			},
			expected: fwuperrors.ErrStringNotASCII,
		},
		{
			name: "image count mismatch",
			mutate: func(m *PackageManifest) [][]byte {
				return nil
			},
			expected: fwuperrors.ErrImageCountMismatch,
		},
		{
			name: "wrong initial descriptor type",
			mutate: func(m *PackageManifest) [][]byte {
				m.FirmwareDeviceIdentificationArea[0].InitialDescriptor.Type = 0x0001
				return oneImage
			},
			expected: fwuperrors.ErrBadDescriptorType,
		},
		{
			name: "short descriptor data",
			mutate: func(m *PackageManifest) [][]byte {
				m.FirmwareDeviceIdentificationArea[0].InitialDescriptor.Data = testUUID[:8]
				return oneImage
			},
			expected: fwuperrors.ErrBadDescriptorLength,
		},
		{
			name: "additional descriptors",
			mutate: func(m *PackageManifest) [][]byte {
				m.FirmwareDeviceIdentificationArea[0].AdditionalDescriptors = []Descriptor{
					{Type: 0x0001, Data: []byte{1, 2, 3, 4}},
				}
				return oneImage
			},
			expected: fwuperrors.ErrExtraDescriptors,
		},
		{
			name: "undefined device option bit",
			mutate: func(m *PackageManifest) [][]byte {
				m.FirmwareDeviceIdentificationArea[0].DeviceUpdateOptionFlags = 0x00000002
				return oneImage
			},
			expected: fwuperrors.ErrUnsupportedOptionBit,
		},
		{
			name: "undefined component option bit",
			mutate: func(m *PackageManifest) [][]byte {
				m.ComponentImageInformationArea[0].Options = 0x0002
				return oneImage
			},
			expected: fwuperrors.ErrUnsupportedOptionBit,
		},
		{
			name: "undefined activation method bit",
			mutate: func(m *PackageManifest) [][]byte {
				m.ComponentImageInformationArea[0].RequestedActivationMethod = 0x0040
				return oneImage
			},
			expected: fwuperrors.ErrUnsupportedOptionBit,
		},
		{
			name: "applicable component out of range",
			mutate: func(m *PackageManifest) [][]byte {
				m.FirmwareDeviceIdentificationArea[0].ApplicableComponents = []int{1}
				return oneImage
			},
			expected: fwuperrors.ErrBadComponentIndex,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			manifest := testManifest(1)
			images := tc.mutate(manifest)

			out, err := os.Create(filepath.Join(t.TempDir(), "pkg.bin"))
			if err != nil {
				t.Fatalf("create sink: %v", err)
			}
			defer out.Close()

			sources := make([]ImageSource, len(images))
			for i, img := range images {
				sources[i] = ImageFromBytes(img)
			}
			err = WritePackage(out, manifest, sources, nil)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("WritePackage = %v, want %v", err, tc.expected)
			}
			if !errors.Is(err, fwuperrors.ErrValidation) {
				t.Errorf("error %v is not classified as validation", err)
			}

			// Validation failures must not touch the sink.
			stat, statErr := out.Stat()
			if statErr != nil {
				t.Fatalf("stat sink: %v", statErr)
			}
			if stat.Size() != 0 {
				t.Errorf("sink holds %d bytes after a validation failure", stat.Size())
			}
		})
	}
}

func TestWriteTooManyComponents(t *testing.T) {
	manifest := testManifest(1)
	for i := 1; i < 33; i++ {
		manifest.ComponentImageInformationArea = append(manifest.ComponentImageInformationArea,
			manifest.ComponentImageInformationArea[0])
	}
	images := make([]ImageSource, 33)
	for i := range images {
		images[i] = ImageFromBytes([]byte{0x01})
	}

	out, err := os.Create(filepath.Join(t.TempDir(), "pkg.bin"))
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	defer out.Close()

	if err := WritePackage(out, manifest, images, nil); !errors.Is(err, fwuperrors.ErrTooManyComponents) {
		t.Errorf("WritePackage = %v, want ErrTooManyComponents", err)
	}
}

func TestWriteTooManyDeviceRecords(t *testing.T) {
	manifest := testManifest(1)
	record := manifest.FirmwareDeviceIdentificationArea[0]
	for i := 1; i < 256; i++ {
		manifest.FirmwareDeviceIdentificationArea =
			append(manifest.FirmwareDeviceIdentificationArea, record)
	}

	out, err := os.Create(filepath.Join(t.TempDir(), "pkg.bin"))
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	defer out.Close()

	err = WritePackage(out, manifest, []ImageSource{ImageFromBytes([]byte{0x01})}, nil)
	if !errors.Is(err, fwuperrors.ErrTooManyDeviceRecords) {
		t.Errorf("WritePackage = %v, want ErrTooManyDeviceRecords", err)
	}
}
