package typecodec

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PostgreSQL numeric binary layout constants: values are
// stored as groups of base-10000 "digits", most significant first.
const (
	numericNBase      = 10000
	numericPosSign    int16 = 0x0000
	numericNegSign    int16 = 0x4000
	numericNaNSign    int16 = -0x4000 // bit pattern 0xC000
)

func init() {
	register(OIDNumeric, &Codec{
		TextEncode: func(v any) ([]byte, error) {
			d, err := asDecimal(v)
			if err != nil {
				return nil, err
			}
			return []byte(d.String()), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			d, err := asDecimal(v)
			if err != nil {
				return nil, err
			}
			return encodeNumericBinary(d), nil
		},
		TextDecode: func(b []byte) (any, error) {
			d, err := decimal.NewFromString(string(b))
			if err != nil {
				return nil, textDecodeErr("numeric", string(b))
			}
			return d, nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			d, err := decodeNumericBinary(b)
			if err != nil {
				return nil, binaryDecodeErr("numeric", len(b))
			}
			return d, nil
		},
	})
}

func asDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, textDecodeErr("numeric", n)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Decimal{}, textDecodeErr("numeric", "")
	}
}

// encodeNumericBinary converts a decimal.Decimal into PostgreSQL's
// numeric binary wire layout: int16 ndigits, int16 weight, int16 sign,
// int16 dscale, then ndigits base-10000 digits (int16 each).
func encodeNumericBinary(d decimal.Decimal) []byte {
	sign := numericPosSign
	if d.Sign() < 0 {
		sign = numericNegSign
		d = d.Neg()
	}

	// Unscaled digit string, e.g. "123" with exponent -2 means "1.23".
	coeff := d.Coefficient().String()
	exp := int(d.Exponent())
	dscale := 0
	if exp < 0 {
		dscale = -exp
	}

	// Build the full decimal digit string split at the decimal point:
	// intPart || fracPart, where fracPart has exactly dscale digits.
	var intPart, fracPart string
	if exp >= 0 {
		intPart = coeff + strings.Repeat("0", exp)
		fracPart = ""
	} else if len(coeff) > dscale {
		intPart = coeff[:len(coeff)-dscale]
		fracPart = coeff[len(coeff)-dscale:]
	} else {
		intPart = "0"
		fracPart = strings.Repeat("0", dscale-len(coeff)) + coeff
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}

	if intPart == "0" && fracPart == strings.Repeat("0", len(fracPart)) {
		// Zero value: ndigits=0, weight=0 per the on-disk convention.
		out := make([]byte, 0, 8)
		out = appendInt16(out, 0)
		out = appendInt16(out, 0)
		out = appendInt16(out, int16(sign))
		out = appendInt16(out, int16(dscale))
		return out
	}

	leftPad := (4 - len(intPart)%4) % 4
	intPadded := strings.Repeat("0", leftPad) + intPart
	rightPad := (4 - len(fracPart)%4) % 4
	fracPadded := fracPart + strings.Repeat("0", rightPad)

	weight := int16(len(intPadded)/4 - 1)
	digitsStr := intPadded + fracPadded
	ndigits := len(digitsStr) / 4

	out := make([]byte, 0, 8+ndigits*2)
	out = appendInt16(out, int16(ndigits))
	out = appendInt16(out, weight)
	out = appendInt16(out, int16(sign))
	out = appendInt16(out, int16(dscale))
	for i := 0; i < ndigits; i++ {
		group := digitsStr[i*4 : i*4+4]
		val := 0
		for _, c := range group {
			val = val*10 + int(c-'0')
		}
		out = appendInt16(out, int16(val))
	}
	return out
}

// decodeNumericBinary is the inverse of encodeNumericBinary.
func decodeNumericBinary(b []byte) (decimal.Decimal, error) {
	if len(b) < 8 {
		return decimal.Decimal{}, errShortNumeric
	}
	ndigits := int(readInt16(b[0:2]))
	weight := int(readInt16(b[2:4]))
	sign := readInt16(b[4:6])
	dscale := int(readInt16(b[6:8]))
	if sign == numericNaNSign {
		return decimal.Decimal{}, errNaNNumeric
	}
	if len(b) < 8+ndigits*2 {
		return decimal.Decimal{}, errShortNumeric
	}

	var digits strings.Builder
	for i := 0; i < ndigits; i++ {
		v := readInt16(b[8+i*2 : 8+i*2+2])
		digits.WriteString(padGroup(int(v)))
	}

	// The decimal point sits (weight+1)*4 digits from the start of the
	// digit string; ndigits*4 - that many digits are fractional.
	intDigitLen := (weight + 1) * 4
	full := digits.String()
	if intDigitLen < 0 {
		full = strings.Repeat("0", -intDigitLen) + full
		intDigitLen = 0
	}
	for len(full) < intDigitLen {
		full += "0"
	}
	intPart := full[:intDigitLen]
	fracPart := full[intDigitLen:]
	if intPart == "" {
		intPart = "0"
	}
	// Trim/pad fracPart to exactly dscale digits.
	if len(fracPart) > dscale {
		fracPart = fracPart[:dscale]
	} else {
		fracPart += strings.Repeat("0", dscale-len(fracPart))
	}

	s := intPart
	if dscale > 0 {
		s += "." + fracPart
	}
	if sign == numericNegSign {
		s = "-" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

func padGroup(v int) string {
	s := itoa4(v)
	return s
}

func itoa4(v int) string {
	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[:])
}

func appendInt16(dst []byte, v int16) []byte {
	return append(dst, byte(uint16(v)>>8), byte(uint16(v)))
}

func readInt16(b []byte) int16 {
	return int16(uint16(b[0])<<8 | uint16(b[1]))
}

var errShortNumeric = textDecodeErr("numeric", "short binary numeric")
var errNaNNumeric = textDecodeErr("numeric", "NaN")
