package typecodec

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRoundTripInt8(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, 1 << 40, -(1 << 40)} {
		txt, err := Encode(OIDInt8, FormatText, n)
		if err != nil {
			t.Fatalf("text encode: %v", err)
		}
		got, err := Decode(OIDInt8, FormatText, txt)
		if err != nil {
			t.Fatalf("text decode: %v", err)
		}
		if got.(int64) != n {
			t.Errorf("text round trip: got %v want %v", got, n)
		}

		bin, err := Encode(OIDInt8, FormatBinary, n)
		if err != nil {
			t.Fatalf("binary encode: %v", err)
		}
		got, err = Decode(OIDInt8, FormatBinary, bin)
		if err != nil {
			t.Fatalf("binary decode: %v", err)
		}
		if got.(int64) != n {
			t.Errorf("binary round trip: got %v want %v", got, n)
		}
	}
}

func TestRoundTripBool(t *testing.T) {
	for _, b := range []bool{true, false} {
		txt, _ := Encode(OIDBool, FormatText, b)
		got, err := Decode(OIDBool, FormatText, txt)
		if err != nil || got.(bool) != b {
			t.Errorf("text round trip bool %v: got %v err %v", b, got, err)
		}
		bin, _ := Encode(OIDBool, FormatBinary, b)
		got, err = Decode(OIDBool, FormatBinary, bin)
		if err != nil || got.(bool) != b {
			t.Errorf("binary round trip bool %v: got %v err %v", b, got, err)
		}
	}
}

func TestRoundTripBytea(t *testing.T) {
	orig := []byte{0x00, 0xFF, 0x10, 0xAB}
	txt, err := Encode(OIDBytea, FormatText, orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(OIDBytea, FormatText, txt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.([]byte), orig) {
		t.Errorf("text round trip: got %x want %x", got, orig)
	}

	bin, _ := Encode(OIDBytea, FormatBinary, orig)
	got, err = Decode(OIDBytea, FormatBinary, bin)
	if err != nil || !bytes.Equal(got.([]byte), orig) {
		t.Errorf("binary round trip: got %x want %x", got, orig)
	}
}

func TestRoundTripNumeric(t *testing.T) {
	cases := []string{"0", "1", "-1", "123.456", "-0.0001", "99999999999999.99", "1000000"}
	for _, s := range cases {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		bin, err := Encode(OIDNumeric, FormatBinary, d)
		if err != nil {
			t.Fatalf("encode %q: %v", s, err)
		}
		got, err := Decode(OIDNumeric, FormatBinary, bin)
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		gd := got.(decimal.Decimal)
		if !gd.Equal(d) {
			t.Errorf("numeric round trip %q: got %s want %s", s, gd.String(), d.String())
		}
	}
}

func TestNullRoundTrip(t *testing.T) {
	v, err := Decode(OIDInt8, FormatText, nil)
	if err != nil || v != nil {
		t.Errorf("NULL decode should yield (nil,nil), got (%v,%v)", v, err)
	}
}

func TestRoundTripTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 30, 45, 123000000, time.UTC)
	bin, err := Encode(OIDTimestampTZ, FormatBinary, ts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(OIDTimestampTZ, FormatBinary, bin)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gt := got.(time.Time)
	if !gt.Equal(ts) {
		t.Errorf("timestamp round trip: got %v want %v", gt, ts)
	}
}
