package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// maxYear is the latest year that can be represented by a timestamp
	maxYear = 262143

	isoLayout = "2006-01-02T15:04:05"
)

// Timestamp is either Millis or ISOString.
type Timestamp interface {
	utcTime() (time.Time, error)
}

// Millis is milliseconds since the unix epoch.
type Millis uint64

// ISOString is an RFC 3339 date time string with an explicit offset, e.g. "1984-04-04T12:34:50Z".
type ISOString string

func (x Millis) utcTime() (time.Time, error) {
	if uint64(x) > math.MaxInt64 {
		return time.Time{}, errors.Wrapf(ErrInvalidTimestamp, "epoch millis overflows: %d", uint64(x))
	}

	t := time.UnixMilli(int64(x)).UTC()
	if t.Year() > maxYear {
		return time.Time{}, errors.Wrapf(ErrInvalidTimestamp, "epoch millis out of range: %d", uint64(x))
	}
	return t, nil
}

func (x ISOString) utcTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, string(x))
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidTimestamp, "can not parse %q", string(x))
	}
	return t.UTC(), nil
}

// TimestampFromTime converts time.Time to Millis. Times before the epoch can not
// be Millis and are converted to ISOString.
func TimestampFromTime(t time.Time) Timestamp {
	if ms := t.UnixMilli(); ms >= 0 {
		return Millis(uint64(ms))
	}
	return ISOString(t.UTC().Format(time.RFC3339Nano))
}

// ParseTimestamp accepts epoch millis digits or an ISO 8601 string.
func ParseTimestamp(raw string) Timestamp {
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return Millis(n)
	}
	return ISOString(raw)
}

// Normalize returns the epoch millis that a canonical path of ts can hold.
// Paths have second precision.
func Normalize(ts Timestamp) (int64, error) {
	t, err := ts.utcTime()
	if err != nil {
		return 0, err
	}
	return t.Truncate(time.Second).UnixMilli(), nil
}

// PathCodec converts a timestamp to the canonical path and back.
// The canonical path is /YYYY/M/D/YYYY-M-D-h-m-s.ext
type PathCodec struct {
	// PadMonthDay renders month and day of the directory segments in two digits
	// for object stores scanning keys by prefix. The file name is never padded.
	PadMonthDay bool
}

// Encode generates the canonical path of ts.
func (x PathCodec) Encode(ts Timestamp, extension string) (string, error) {
	ext := strings.TrimPrefix(extension, ".")
	if ext == "" {
		return "", errors.Wrapf(ErrInvalidExtension, "extension %q", extension)
	}

	t, err := ts.utcTime()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("/%s/%d-%d-%d-%d-%d-%d.%s",
		x.DirSegments(t.Year(), int(t.Month()), t.Day()),
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), ext), nil
}

// DirSegments returns "{year}/{month}/{day}" without leading and trailing slash.
func (x PathCodec) DirSegments(year, month, day int) string {
	return x.YearMonthSegments(year, month) + "/" + x.pad(day)
}

// YearMonthSegments returns "{year}/{month}".
func (x PathCodec) YearMonthSegments(year, month int) string {
	return fmt.Sprintf("%d/%s", year, x.pad(month))
}

func (x PathCodec) pad(v int) string {
	if x.PadMonthDay {
		return fmt.Sprintf("%02d", v)
	}
	return strconv.Itoa(v)
}

// ObjectKey converts a canonical path to an object store key (no leading slash).
func ObjectKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// PathDateTime is a decoded canonical path.
type PathDateTime struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Second    int    `json:"second"`
	FileName  string `json:"file_name"`
	UnixMilli int64  `json:"unix_millis"`
	ISOString string `json:"iso_string"`
}

type pathField struct {
	name string
	raw  string
	dst  *int
}

// DecodePath parses a canonical path with or without a leading slash.
func DecodePath(path string) (*PathDateTime, error) {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	// year, month, day, file name
	if len(segments) != 4 {
		return nil, errors.Wrapf(ErrMalformedPath, "%d segments in %q", len(segments), path)
	}

	tokens := strings.Split(segments[3], "-")
	// year, month, day, hour, minute, second with extension
	if len(tokens) != 6 {
		return nil, errors.Wrapf(ErrMalformedPath, "%d tokens in file name %q", len(tokens), segments[3])
	}
	sec := strings.SplitN(tokens[5], ".", 2)[0]

	var dt PathDateTime
	var nameYear, nameMonth, nameDay int
	fields := []pathField{
		{"year", segments[0], &dt.Year},
		{"month", segments[1], &dt.Month},
		{"day", segments[2], &dt.Day},
		{"year", tokens[0], &nameYear},
		{"month", tokens[1], &nameMonth},
		{"day", tokens[2], &nameDay},
		{"hour", tokens[3], &dt.Hour},
		{"minute", tokens[4], &dt.Minute},
		{"second", sec, &dt.Second},
	}
	for _, f := range fields {
		v, ok := ParseDigits(f.raw)
		if !ok {
			return nil, &InvalidFieldError{Field: f.name, Value: f.raw}
		}
		*f.dst = v
	}

	if nameYear != dt.Year || nameMonth != dt.Month || nameDay != dt.Day {
		return nil, errors.Wrapf(ErrInvalidCalendarDate, "date of file name %q differs from directory %d/%d/%d",
			segments[3], dt.Year, dt.Month, dt.Day)
	}

	t := time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC)
	if t.Year() != dt.Year || int(t.Month()) != dt.Month || t.Day() != dt.Day ||
		t.Hour() != dt.Hour || t.Minute() != dt.Minute || t.Second() != dt.Second {
		return nil, errors.Wrapf(ErrInvalidCalendarDate, "path %q", path)
	}

	dt.FileName = segments[3]
	dt.UnixMilli = t.UnixMilli()
	dt.ISOString = t.Format(isoLayout) + "+00:00"
	return &dt, nil
}

// ParseDigits parses a non-negative decimal made of ASCII digits only. Signs,
// spaces and empty strings are rejected.
func ParseDigits(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	for _, c := range raw {
		if c < '0' || '9' < c {
			return 0, false
		}
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
