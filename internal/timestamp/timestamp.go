// Package timestamp converts between canonical instants and the three wire
// encodings the task API uses: the nested Firestore seconds/nanoseconds
// object, RFC 3339 strings, and epoch milliseconds.
//
// The asymmetry matters: the server returns the nested form on reads, but
// writes must submit RFC 3339 strings. Encode therefore always takes an
// explicit target format and never guesses from context.
package timestamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrMalformed is returned when a wire value matches none of the known
// encodings. Decoding never falls back to the current time.
var ErrMalformed = errors.New("malformed timestamp")

// Format selects the wire encoding Encode emits.
type Format int

const (
	// Firestore is the nested {"_seconds": n, "_nanoseconds": n} object
	// returned by reads.
	Firestore Format = iota

	// ISO8601 is an RFC 3339 date-time string, required on writes.
	ISO8601

	// EpochMillis is an integer count of milliseconds since the Unix epoch.
	EpochMillis
)

// firestoreValue mirrors the nested timestamp object. The Admin SDK emits
// underscored keys; the bare spellings are accepted as well.
type firestoreValue struct {
	Seconds     *float64 `json:"_seconds"`
	Nanoseconds *float64 `json:"_nanoseconds"`
	BareSeconds *float64 `json:"seconds"`
	BareNanos   *float64 `json:"nanoseconds"`
}

// Decode parses a raw JSON timestamp value, auto-detecting its encoding by
// shape. Returns ErrMalformed if the value matches none of the three shapes.
func Decode(raw json.RawMessage) (time.Time, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return time.Time{}, ErrMalformed
	}

	switch trimmed[0] {
	case '{':
		return decodeNested(trimmed)
	case '"':
		return decodeString(trimmed)
	}
	return decodeNumber(trimmed)
}

func decodeNested(raw []byte) (time.Time, error) {
	var v firestoreValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	secs, nanos := v.Seconds, v.Nanoseconds
	if secs == nil {
		secs, nanos = v.BareSeconds, v.BareNanos
	}
	if secs == nil {
		return time.Time{}, fmt.Errorf("%w: object has no seconds field", ErrMalformed)
	}
	whole := math.Floor(*secs)
	nsec := (*secs - whole) * 1e9
	if nanos != nil {
		nsec += *nanos
	}
	return time.Unix(int64(whole), int64(nsec)).UTC(), nil
}

func decodeString(raw []byte) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not RFC 3339", ErrMalformed, s)
	}
	return t.UTC(), nil
}

func decodeNumber(raw []byte) (time.Time, error) {
	// Integer millis round-trip exactly; fractional values keep sub-ms
	// precision via the nanosecond path.
	if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMalformed, raw)
	}
	return time.Unix(0, int64(f*1e6)).UTC(), nil
}

// Encode renders t in the given wire format. The format is always the
// caller's choice; there is no inference.
func Encode(t time.Time, f Format) (json.RawMessage, error) {
	switch f {
	case Firestore:
		return json.RawMessage(fmt.Sprintf(`{"_seconds":%d,"_nanoseconds":%d}`, t.Unix(), t.Nanosecond())), nil
	case ISO8601:
		return json.Marshal(t.UTC().Format(time.RFC3339Nano))
	case EpochMillis:
		return json.RawMessage(strconv.FormatInt(t.UnixMilli(), 10)), nil
	}
	return nil, fmt.Errorf("unknown timestamp format %d", f)
}

// EncodeISO is shorthand for the write-side string encoding.
func EncodeISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
