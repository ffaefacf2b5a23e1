package format_dsp0267

import (
	"encoding/binary"
	"fmt"
	"time"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// ReleaseDateTime is the 13-byte PackageReleaseDateTime field.
//
// Layout: u16 reserved, 24-bit LE microseconds, second, minute, hour,
// day, month, u16 LE year, one reserved byte. The leading reserved u16
// doubles as the spill area for the writer's u32 header-size patch, so
// both codecs treat it as don't-care.
type ReleaseDateTime struct {
	Microseconds uint32 `json:"Microseconds"`
	Second       uint8  `json:"Second"`
	Minute       uint8  `json:"Minute"`
	Hour         uint8  `json:"Hour"`
	Day          uint8  `json:"Day"`
	Month        uint8  `json:"Month"`
	Year         uint16 `json:"Year"`
}

// ReleaseDateTimeOf captures a wall-clock instant as a package
// timestamp.
func ReleaseDateTimeOf(t time.Time) ReleaseDateTime {
	return ReleaseDateTime{
		Microseconds: uint32(t.Nanosecond() / 1000),
		Second:       uint8(t.Second()),
		Minute:       uint8(t.Minute()),
		Hour:         uint8(t.Hour()),
		Day:          uint8(t.Day()),
		Month:        uint8(t.Month()),
		Year:         uint16(t.Year()),
	}
}

// Pack serializes the timestamp to exactly 13 bytes.
func (ts ReleaseDateTime) Pack() []byte {
	buf := make([]byte, TimestampSize)

	// buf[0:2] reserved, left zero
	buf[2] = uint8(ts.Microseconds)
	buf[3] = uint8(ts.Microseconds >> 8)
	buf[4] = uint8(ts.Microseconds >> 16)
	buf[5] = ts.Second
	buf[6] = ts.Minute
	buf[7] = ts.Hour
	buf[8] = ts.Day
	buf[9] = ts.Month
	binary.LittleEndian.PutUint16(buf[10:12], ts.Year)
	// buf[12] reserved, left zero

	return buf
}

// UnpackReleaseDateTime deserializes a timestamp from 13 bytes. The
// reserved bytes are ignored.
func UnpackReleaseDateTime(data []byte) (ReleaseDateTime, error) {
	if len(data) != TimestampSize {
		return ReleaseDateTime{}, fmt.Errorf("%w: timestamp is %d bytes, want %d",
			fwuperrors.ErrMalformedPackage, len(data), TimestampSize)
	}
	return ReleaseDateTime{
		Microseconds: uint32(data[2]) | uint32(data[3])<<8 | uint32(data[4])<<16,
		Second:       data[5],
		Minute:       data[6],
		Hour:         data[7],
		Day:          data[8],
		Month:        data[9],
		Year:         binary.LittleEndian.Uint16(data[10:12]),
	}, nil
}

// String renders the timestamp the way the unpack tooling displays it.
func (ts ReleaseDateTime) String() string {
	return fmt.Sprintf("%02d/%02d/%04d %02d:%02d:%02d",
		ts.Day, ts.Month, ts.Year, ts.Hour, ts.Minute, ts.Second)
}
