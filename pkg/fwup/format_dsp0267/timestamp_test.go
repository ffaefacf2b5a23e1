package format_dsp0267

import (
	"bytes"
	"testing"
	"time"
)

func TestReleaseDateTimePackLayout(t *testing.T) {
	ts := ReleaseDateTime{
		Microseconds: 0x030201,
		Second:       59,
		Minute:       7,
		Hour:         23,
		Day:          28,
		Month:        2,
		Year:         2024,
	}

	expected := []byte{
		0x00, 0x00, // reserved
		0x01, 0x02, 0x03, // microseconds, 24-bit LE
		59, 7, 23, // second, minute, hour
		28, 2, // day, month
		0xE8, 0x07, // year 2024 LE
		0x00, // reserved
	}

	got := ts.Pack()
	if !bytes.Equal(got, expected) {
		t.Errorf("Pack() = %x, want %x", got, expected)
	}
}

func TestReleaseDateTimeRoundTrip(t *testing.T) {
	ts := ReleaseDateTimeOf(time.Date(2023, time.November, 5, 14, 30, 9, 123456000, time.UTC))
	if ts.Microseconds != 123456 {
		t.Fatalf("Microseconds = %d, want 123456", ts.Microseconds)
	}

	decoded, err := UnpackReleaseDateTime(ts.Pack())
	if err != nil {
		t.Fatalf("UnpackReleaseDateTime failed: %v", err)
	}
	if decoded != ts {
		t.Errorf("round trip %+v -> %+v", ts, decoded)
	}
	if got := decoded.String(); got != "05/11/2023 14:30:09" {
		t.Errorf("String() = %q, want %q", got, "05/11/2023 14:30:09")
	}
}

func TestUnpackReleaseDateTimeIgnoresReserved(t *testing.T) {
	ts := ReleaseDateTime{Second: 1, Minute: 2, Hour: 3, Day: 4, Month: 5, Year: 2025}
	packed := ts.Pack()

	// The writer's u32 header-size patch spills into the leading
	// reserved u16; the decoder must not care.
	packed[0] = 0xAA
	packed[1] = 0xBB

	decoded, err := UnpackReleaseDateTime(packed)
	if err != nil {
		t.Fatalf("UnpackReleaseDateTime failed: %v", err)
	}
	if decoded != ts {
		t.Errorf("decoded %+v, want %+v", decoded, ts)
	}
}

func TestUnpackReleaseDateTimeShort(t *testing.T) {
	if _, err := UnpackReleaseDateTime(make([]byte, 12)); err == nil {
		t.Error("UnpackReleaseDateTime accepted 12 bytes")
	}
}
