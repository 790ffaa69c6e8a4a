package xrec

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which SQLite storage class a [Value] holds.
// Exactly one kind is active per value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindReal
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindText:
		return "TEXT"
	case KindBlob:
		return "BLOB"
	}
	return "INVALID"
}

// Value is a scalar in one of the five SQLite storage classes. The zero
// Value is NULL. Values are immutable; [Value.BlobValue] and [Value.Arg]
// hand out defensive copies of blob payloads.
type Value struct {
	kind Kind
	n    int64
	f    float64
	s    string
	b    []byte
}

// Null is the NULL value.
var Null = Value{}

// Integer returns an INTEGER value.
func Integer(n int64) Value { return Value{kind: KindInteger, n: n} }

// Real returns a REAL value.
func Real(f float64) Value { return Value{kind: KindReal, f: f} }

// Text returns a TEXT value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Blob returns a BLOB value. The byte slice is copied; a nil slice is the
// empty blob, not NULL.
func Blob(b []byte) Value {
	return Value{kind: KindBlob, b: append([]byte{}, b...)}
}

// timeFormat is how time.Time is persisted: RFC 3339 with nanoseconds,
// which SQLite's date functions accept and which sorts lexicographically.
const timeFormat = time.RFC3339Nano

// ValueOf converts a native Go value into a [Value].
//
// Supported: nil, Value, bool, all signed and unsigned integer widths,
// float32/float64, string, []byte, time.Time (stored as RFC 3339 text),
// and any [driver.Valuer]. A uint64 above math.MaxInt64 does not fit the
// INTEGER storage class and returns an error, as does any other type.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case bool:
		if x {
			return Integer(1), nil
		}
		return Integer(0), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Null, fmt.Errorf("xrec: uint %d overflows INTEGER", x)
		}
		return Integer(int64(x)), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Null, fmt.Errorf("xrec: uint64 %d overflows INTEGER", x)
		}
		return Integer(int64(x)), nil
	case float32:
		return Real(float64(x)), nil
	case float64:
		return Real(x), nil
	case string:
		return Text(x), nil
	case []byte:
		if x == nil {
			return Null, nil
		}
		return Blob(x), nil
	case time.Time:
		return Text(x.Format(timeFormat)), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return Null, fmt.Errorf("xrec: Valuer failed: %w", err)
		}
		return ValueOf(dv)
	}
	return Null, fmt.Errorf("xrec: cannot convert %T to a database value", v)
}

// fromCell decodes a cell as handed out by database/sql into a Value.
// SQLite reports TEXT and BLOB cells both as []byte through the driver; the
// column's declared type decides which storage class the bytes belong to.
// An undeclared column (expression result) defaults to TEXT, since the
// driver surfaces genuine blobs from declared columns.
func fromCell(cell any, decl string) Value {
	switch x := cell.(type) {
	case nil:
		return Null
	case int64:
		return Integer(x)
	case float64:
		return Real(x)
	case bool:
		if x {
			return Integer(1)
		}
		return Integer(0)
	case string:
		return Text(x)
	case time.Time:
		return Text(x.Format(timeFormat))
	case []byte:
		if decl != "" && typeAffinity(decl) == KindBlob {
			return Blob(x)
		}
		return Text(string(x))
	}
	// Unknown driver type; keep its printed form rather than dropping it.
	return Text(fmt.Sprint(cell))
}

// typeAffinity maps a declared column type to its SQLite affinity,
// expressed as the Kind a matching cell gravitates to. The rules follow
// https://sqlite.org/datatype3.html §3.1: INT → INTEGER; CHAR, CLOB or
// TEXT → TEXT; BLOB or empty → BLOB; REAL, FLOA or DOUB → REAL; otherwise
// NUMERIC (reported here as INTEGER).
func typeAffinity(decl string) Kind {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "INT"):
		return KindInteger
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return KindText
	case d == "" || strings.Contains(d, "BLOB"):
		return KindBlob
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return KindReal
	default:
		return KindInteger
	}
}

// Kind reports the active storage class.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Arg returns the value in the form database/sql binds: nil, int64,
// float64, string, or []byte. Binding never fails on type grounds; the five
// storage classes map one-to-one onto what the engine accepts.
func (v Value) Arg() any {
	switch v.kind {
	case KindInteger:
		return v.n
	case KindReal:
		return v.f
	case KindText:
		return v.s
	case KindBlob:
		return append([]byte{}, v.b...)
	}
	return nil
}

// Int64 extracts the value as an integer.
//
// INTEGER extracts directly. REAL extracts when the stored number is
// integral and fits int64; this is what makes a REAL-affinity column
// holding 1.0 read back as the integer 1. TEXT extracts when the whole
// string parses as an integer, or as an integral float. NULL and BLOB
// report ok=false.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInteger:
		return v.n, true
	case KindReal:
		return realToInt64(v.f)
	case KindText:
		s := strings.TrimSpace(v.s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return realToInt64(f)
		}
	}
	return 0, false
}

// Float64 extracts the value as a floating-point number. INTEGER and REAL
// extract directly (large integers round the way the engine itself rounds);
// TEXT extracts when the whole string parses as a number.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.n), true
	case KindReal:
		return v.f, true
	case KindText:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// TextValue extracts the value as a string. Only TEXT extracts; numbers do
// not silently stringify. Use String for a display form.
func (v Value) TextValue() (string, bool) {
	if v.kind == KindText {
		return v.s, true
	}
	return "", false
}

// BlobValue extracts the value as bytes. Only BLOB extracts; the returned
// slice is a copy the caller owns.
func (v Value) BlobValue() ([]byte, bool) {
	if v.kind == KindBlob {
		return append([]byte{}, v.b...), true
	}
	return nil, false
}

// Bool extracts the value as a boolean via Int64; zero is false, any other
// extractable number is true.
func (v Value) Bool() (bool, bool) {
	n, ok := v.Int64()
	if !ok {
		return false, false
	}
	return n != 0, true
}

// Time extracts a TEXT value in the persisted time format.
func (v Value) Time() (time.Time, bool) {
	s, ok := v.TextValue()
	if !ok {
		return time.Time{}, false
	}
	if t, err := time.Parse(timeFormat, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Equal reports plain equality: same storage class and same payload.
// Integer(1) is not Equal to Real(1.0); that distinction is what lets
// change tracking notice a value flipping storage class. Compare with
// [Value.DatabaseEqual].
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInteger:
		return v.n == o.n
	case KindReal:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	default:
		return string(v.b) == string(o.b)
	}
}

// DatabaseEqual reports equality the way the engine's = operator does for
// numbers: in addition to [Value.Equal], an INTEGER and a REAL compare
// equal when they denote the same number. All other cross-class pairs
// remain unequal.
func (v Value) DatabaseEqual(o Value) bool {
	if v.kind == o.kind {
		return v.Equal(o)
	}
	if v.kind == KindInteger && o.kind == KindReal {
		return intEqualsReal(v.n, o.f)
	}
	if v.kind == KindReal && o.kind == KindInteger {
		return intEqualsReal(o.n, v.f)
	}
	return false
}

// String renders the display form: NULL for null, numeric literals for
// INTEGER and REAL, the text itself for TEXT, and x'hex' for BLOB.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.n, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBlob:
		return "x'" + hex.EncodeToString(v.b) + "'"
	}
	return "NULL"
}

const (
	// Exact float64 bounds of the int64 range. 2^63 is representable;
	// anything at or beyond it cannot equal an int64.
	maxInt64AsFloat = 9223372036854775808.0
	minInt64AsFloat = -9223372036854775808.0
)

func realToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f >= maxInt64AsFloat || f < minInt64AsFloat {
		return 0, false
	}
	return int64(f), true
}

func intEqualsReal(n int64, f float64) bool {
	i, ok := realToInt64(f)
	return ok && i == n
}
