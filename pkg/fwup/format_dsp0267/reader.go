package format_dsp0267

import (
	"encoding/binary"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-hclog"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// Reader reads DSP0267 firmware update packages.
type Reader struct {
	packagePath string
	file        *os.File
	data        mmap.MMap
	buf         []byte
	manifest    *PackageManifest
	logger      hclog.Logger
}

// NewReader creates a reader over a package file.
func NewReader(packagePath string) (*Reader, error) {
	return NewReaderWithLogger(packagePath, hclog.NewNullLogger())
}

// NewReaderWithLogger creates a reader over a package file with a
// custom logger.
func NewReaderWithLogger(packagePath string, logger hclog.Logger) (*Reader, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reader{
		packagePath: packagePath,
		logger:      logger,
	}, nil
}

// NewBytes creates a reader over an in-memory package buffer.
func NewBytes(data []byte, logger hclog.Logger) *Reader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reader{
		buf:    data,
		logger: logger,
	}
}

// Open memory-maps the package file read-only. It is a no-op for
// in-memory readers and when already open.
func (r *Reader) Open() error {
	if r.buf != nil {
		return nil
	}

	file, err := os.Open(r.packagePath)
	if err != nil {
		return err
	}
	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		return err
	}

	r.file = file
	r.data = data
	r.buf = data
	r.logger.Debug("Mapped package", "path", r.packagePath, "size", len(data))
	return nil
}

// Close releases the mapping and the file.
func (r *Reader) Close() error {
	if r.data != nil {
		if err := r.data.Unmap(); err != nil {
			return err
		}
		r.data = nil
		r.buf = nil
	}
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// ReadManifest parses the package and returns its manifest. The parse
// result is cached; the trailing image bytes are not touched.
func (r *Reader) ReadManifest() (*PackageManifest, error) {
	if r.manifest != nil {
		return r.manifest, nil
	}
	if err := r.Open(); err != nil {
		return nil, err
	}

	p := &parser{data: r.buf}
	manifest, err := p.parse(r.logger)
	if err != nil {
		return nil, err
	}
	r.manifest = manifest
	return manifest, nil
}

// ComponentImage returns the raw image bytes of component i, located
// through its recorded offset and size.
func (r *Reader) ComponentImage(i int) ([]byte, error) {
	manifest, err := r.ReadManifest()
	if err != nil {
		return nil, err
	}
	components := manifest.ComponentImageInformationArea
	if i < 0 || i >= len(components) {
		return nil, fmt.Errorf("component %d of %d", i, len(components))
	}
	offset, size := int64(components[i].LocationOffset), int64(components[i].Size)
	if offset+size > int64(len(r.buf)) {
		return nil, fmt.Errorf("%w: component %d spans [%d, %d) in a %d-byte package",
			fwuperrors.ErrMalformedPackage, i, offset, offset+size, len(r.buf))
	}
	return r.buf[offset : offset+size], nil
}

// parser is the short-lived decode state for one package. It carries
// ComponentBitmapBitLength from the header down to the device records
// instead of anything process-wide.
type parser struct {
	data       []byte
	off        int
	bitmapBits uint16
}

func (p *parser) take(n int, field string) ([]byte, error) {
	if n < 0 || len(p.data)-p.off < n {
		return nil, fmt.Errorf("%w: %s at offset %d", fwuperrors.ErrShortRead, field, p.off)
	}
	b := p.data[p.off : p.off+n]
	p.off += n
	return b, nil
}

func (p *parser) u8(field string) (uint8, error) {
	b, err := p.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *parser) u16(field string) (uint16, error) {
	b, err := p.take(2, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p *parser) u32(field string) (uint32, error) {
	b, err := p.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (p *parser) stringType(field string) (StringType, error) {
	v, err := p.u8(field)
	if err != nil {
		return 0, err
	}
	t := StringType(v)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %s is %d", fwuperrors.ErrBadStringType, field, v)
	}
	return t, nil
}

func (p *parser) versionString(field string) (StringType, string, error) {
	t, err := p.stringType(field + " type")
	if err != nil {
		return 0, "", err
	}
	length, err := p.u8(field + " length")
	if err != nil {
		return 0, "", err
	}
	s, err := p.take(int(length), field)
	if err != nil {
		return 0, "", err
	}
	return t, string(s), nil
}

func (p *parser) descriptor(field string) (Descriptor, error) {
	descType, err := p.u16(field + " type")
	if err != nil {
		return Descriptor{}, err
	}
	length, err := p.u16(field + " length")
	if err != nil {
		return Descriptor{}, err
	}
	data, err := p.take(int(length), field+" data")
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Type: descType, Data: HexBlob(data)}, nil
}

func (p *parser) parse(logger hclog.Logger) (*PackageManifest, error) {
	manifest := &PackageManifest{}
	info := &manifest.PackageHeaderInformation

	identifier, err := p.take(HeaderIdentifierSize, "package header identifier")
	if err != nil {
		return nil, err
	}
	info.PackageHeaderIdentifier = HexBlob(identifier)

	if info.PackageHeaderFormatRevision, err = p.u8("format revision"); err != nil {
		return nil, err
	}
	if info.PackageHeaderSize, err = p.u16("package header size"); err != nil {
		return nil, err
	}

	tsBytes, err := p.take(TimestampSize, "release date time")
	if err != nil {
		return nil, err
	}
	if info.PackageReleaseDateTime, err = UnpackReleaseDateTime(tsBytes); err != nil {
		return nil, err
	}

	if p.bitmapBits, err = p.u16("component bitmap bit length"); err != nil {
		return nil, err
	}
	info.ComponentBitmapBitLength = p.bitmapBits

	if info.PackageVersionStringType, info.PackageVersionString, err =
		p.versionString("package version string"); err != nil {
		return nil, err
	}

	logger.Debug("Parsed package header",
		"revision", info.PackageHeaderFormatRevision,
		"header_size", info.PackageHeaderSize,
		"version", info.PackageVersionString,
		"released", info.PackageReleaseDateTime.String())

	deviceCount, err := p.u8("device record count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(deviceCount); i++ {
		record, err := p.deviceRecord()
		if err != nil {
			return nil, fmt.Errorf("device record %d: %w", i, err)
		}
		manifest.FirmwareDeviceIdentificationArea =
			append(manifest.FirmwareDeviceIdentificationArea, record)
	}

	componentCount, err := p.u16("component image count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(componentCount); i++ {
		entry, err := p.componentEntry()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		manifest.ComponentImageInformationArea =
			append(manifest.ComponentImageInformationArea, entry)
	}

	if manifest.PackageHeaderChecksum, err = p.u32("package header checksum"); err != nil {
		return nil, err
	}

	logger.Debug("Parsed package",
		"devices", deviceCount,
		"components", componentCount,
		"checksum", fmt.Sprintf("0x%08x", manifest.PackageHeaderChecksum))
	return manifest, nil
}

func (p *parser) deviceRecord() (DeviceRecord, error) {
	var d DeviceRecord
	var err error

	if d.RecordLength, err = p.u16("record length"); err != nil {
		return d, err
	}
	if d.DescriptorCount, err = p.u8("descriptor count"); err != nil {
		return d, err
	}
	if d.DescriptorCount == 0 {
		return d, fwuperrors.ErrZeroDescriptorCount
	}
	if d.DeviceUpdateOptionFlags, err = p.u32("device update option flags"); err != nil {
		return d, err
	}
	if d.ComponentImageSetVersionStringType, err =
		p.stringType("component image set version string type"); err != nil {
		return d, err
	}
	stringLength, err := p.u8("component image set version string length")
	if err != nil {
		return d, err
	}
	if d.FirmwareDevicePackageDataLength, err = p.u16("firmware device package data length"); err != nil {
		return d, err
	}
	bitmap, err := p.take(int(p.bitmapBits)/8, "applicable components")
	if err != nil {
		return d, err
	}
	d.ApplicableComponents = UnpackBitmap(bitmap)
	versionString, err := p.take(int(stringLength), "component image set version string")
	if err != nil {
		return d, err
	}
	d.ComponentImageSetVersionString = string(versionString)

	if d.InitialDescriptor, err = p.descriptor("initial descriptor"); err != nil {
		return d, err
	}
	for n := 1; n < int(d.DescriptorCount); n++ {
		desc, err := p.descriptor("additional descriptor")
		if err != nil {
			return d, err
		}
		d.AdditionalDescriptors = append(d.AdditionalDescriptors, desc)
	}
	return d, nil
}

func (p *parser) componentEntry() (ComponentEntry, error) {
	var c ComponentEntry
	var err error

	if c.Classification, err = p.u16("component classification"); err != nil {
		return c, err
	}
	if c.Identifier, err = p.u16("component identifier"); err != nil {
		return c, err
	}
	if c.ComparisonStamp, err = p.u32("component comparison stamp"); err != nil {
		return c, err
	}
	if c.Options, err = p.u16("component options"); err != nil {
		return c, err
	}
	if c.RequestedActivationMethod, err = p.u16("requested component activation method"); err != nil {
		return c, err
	}
	if c.LocationOffset, err = p.u32("component location offset"); err != nil {
		return c, err
	}
	if c.Size, err = p.u32("component size"); err != nil {
		return c, err
	}
	if c.VersionStringType, c.VersionString, err =
		p.versionString("component version string"); err != nil {
		return c, err
	}
	return c, nil
}
