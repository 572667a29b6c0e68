package typecodec

import (
	"encoding/binary"
	"fmt"
	"time"
)

// pgEpoch is the zero point for PostgreSQL's binary date/timestamp
// encoding: 2000-01-01 00:00:00 UTC.
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// textTimestampFormats lists accepted input formats for TIMESTAMP/
// TIMESTAMPTZ text values, tried in order.
var textTimestampFormats = []string{
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func init() {
	register(OIDDate, dateCodec())
	register(OIDTimestamp, timestampCodec())
	register(OIDTimestampTZ, timestampCodec())
}

func parseTimestampText(s string) (time.Time, error) {
	for _, layout := range textTimestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimestampText(t)
	default:
		return time.Time{}, textDecodeErr("timestamp", "")
	}
}

func dateCodec() *Codec {
	return &Codec{
		TextEncode: func(v any) ([]byte, error) {
			t, err := asTime(v)
			if err != nil {
				return nil, err
			}
			return []byte(t.Format("2006-01-02")), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			t, err := asTime(v)
			if err != nil {
				return nil, err
			}
			days := int32(t.Sub(pgEpoch).Hours() / 24)
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, uint32(days))
			return buf, nil
		},
		TextDecode: func(b []byte) (any, error) {
			t, err := time.Parse("2006-01-02", string(b))
			if err != nil {
				return nil, textDecodeErr("date", string(b))
			}
			return t.UTC(), nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 4 {
				return nil, binaryDecodeErr("date", len(b))
			}
			days := int32(binary.BigEndian.Uint32(b))
			return pgEpoch.AddDate(0, 0, int(days)), nil
		},
	}
}

func timestampCodec() *Codec {
	return &Codec{
		TextEncode: func(v any) ([]byte, error) {
			t, err := asTime(v)
			if err != nil {
				return nil, err
			}
			layout := "2006-01-02T15:04:05.999999Z07:00"
			if currentTextStyle == StylePostgreSQL {
				layout = "2006-01-02 15:04:05.999999Z07:00"
			}
			return []byte(t.Format(layout)), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			t, err := asTime(v)
			if err != nil {
				return nil, err
			}
			micros := t.Sub(pgEpoch).Microseconds()
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(micros))
			return buf, nil
		},
		TextDecode: func(b []byte) (any, error) {
			t, err := parseTimestampText(string(b))
			if err != nil {
				return nil, textDecodeErr("timestamp", string(b))
			}
			return t, nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 8 {
				return nil, binaryDecodeErr("timestamp", len(b))
			}
			micros := int64(binary.BigEndian.Uint64(b))
			return pgEpoch.Add(time.Duration(micros) * time.Microsecond), nil
		},
	}
}
