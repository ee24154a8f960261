package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/metrics"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sosodev/duration"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// InfiniteDuration is returned for duration values too large to represent,
// such as the maximum TimeSpan some servers use to mean "never expires".
const InfiniteDuration = time.Duration(math.MaxInt64)

var errUnexpectedEnd = errors.New("unexpected end of input")

// ObjectReader is a pull-style property stream over one JSON object.
//
// Next advances to the following property; the typed read methods consume
// its value. A value that is not consumed before the next call to Next is
// skipped and counted as an unknown property.
//
// The same type also serves as a cursor over a single value, which is how
// array elements and nested objects are handed to element decoders.
type ObjectReader struct {
	record string

	// iter is the live stream. ReadObject on it yields the next name.
	iter *jsoniter.Iterator

	// pending holds properties that were read ahead of a union
	// discriminator. They are replayed before iter is touched again.
	pending *orderedmap.Pair[string, []byte]

	// discriminator and kind are set on readers handed to a union variant.
	discriminator string
	kind          string

	cur      *jsoniter.Iterator
	name     string
	consumed bool
	done     bool
	err      error
}

func newObjectReader(record string, iter *jsoniter.Iterator) *ObjectReader {
	return &ObjectReader{record: record, iter: iter, consumed: true}
}

// Record returns the name of the record being decoded
func (r *ObjectReader) Record() string {
	return r.record
}

// Name returns the current property name
func (r *ObjectReader) Name() string {
	return r.name
}

// Err returns the first error hit while reading, if any
func (r *ObjectReader) Err() error {
	return r.err
}

// Next advances to the next property. It returns false at the end of the
// object or after an error; callers distinguish the two with Err.
func (r *ObjectReader) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if !r.consumed {
		r.skipUnknown()
		if r.err != nil {
			return false
		}
	}

	for {
		if r.pending != nil {
			p := r.pending
			r.pending = p.Next()
			r.name = p.Key
			r.cur = jsoniter.ParseBytes(jsoniter.ConfigDefault, p.Value)
		} else {
			name := r.iter.ReadObject()
			if err := r.iter.Error; err != nil {
				if err == io.EOF {
					err = errUnexpectedEnd
				}
				r.fail(apierror.MalformedValue(r.record, "object", err))
				return false
			}
			if name == "" {
				r.done = true
				return false
			}
			r.name = name
			r.cur = r.iter
		}
		r.consumed = false

		if r.discriminator != "" && r.name == r.discriminator {
			// The variant was already chosen; a repeat must agree with it.
			kind, err := r.String()
			if err != nil {
				return false
			}
			if kind != r.kind {
				r.fail(apierror.MalformedValue(r.record, r.name,
					fmt.Errorf("conflicting discriminator %q, already decoding %q", kind, r.kind)))
				return false
			}
			continue
		}
		return true
	}
}

// Skip discards the current value. Converters call it for property names
// they do not recognize.
func (r *ObjectReader) Skip() {
	if r.consumed || r.err != nil {
		return
	}
	r.skipUnknown()
}

func (r *ObjectReader) skipUnknown() {
	metrics.UnknownPropertiesTotal.WithLabelValues(r.record).Inc()
	log.Logger.Debug().
		Str("record_type", r.record).
		Str("property", r.name).
		Msg("skipping unknown property")

	r.consumed = true
	r.cur.Skip()
	r.check()
}

// IsNull consumes the current value and returns true if it is JSON null.
// Otherwise the value is left in place.
func (r *ObjectReader) IsNull() bool {
	if r.consumed || r.err != nil {
		return false
	}
	if r.cur.WhatIsNext() != jsoniter.NilValue {
		return false
	}
	r.cur.ReadNil()
	r.consumed = true
	r.check()
	return true
}

// Raw consumes the current value and returns its JSON text
func (r *ObjectReader) Raw() ([]byte, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	r.consumed = true
	raw := r.cur.SkipAndReturnBytes()
	if err := r.check(); err != nil {
		return nil, err
	}
	return append([]byte(nil), raw...), nil
}

// String reads the current value as a string
func (r *ObjectReader) String() (string, error) {
	it, err := r.take(jsoniter.StringValue, "string")
	if err != nil {
		return "", err
	}
	s := it.ReadString()
	return s, r.check()
}

// Bool reads the current value as a boolean
func (r *ObjectReader) Bool() (bool, error) {
	it, err := r.take(jsoniter.BoolValue, "boolean")
	if err != nil {
		return false, err
	}
	b := it.ReadBool()
	return b, r.check()
}

// Int64 reads the current value as a 64-bit integer
func (r *ObjectReader) Int64() (int64, error) {
	n, err := r.number()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(n, 10, 64)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return v, nil
}

// Int32 reads the current value as a 32-bit integer
func (r *ObjectReader) Int32() (int32, error) {
	n, err := r.number()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(n, 10, 32)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return int32(v), nil
}

// Uint8 reads the current value as an integer in the byte range
func (r *ObjectReader) Uint8() (byte, error) {
	n, err := r.number()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseUint(n, 10, 8)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return byte(v), nil
}

// Float64 reads the current value as a floating point number
func (r *ObjectReader) Float64() (float64, error) {
	n, err := r.number()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(n, 64)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return v, nil
}

// Int64String reads a 64-bit integer carried as a decimal string, the form
// used for partition keys that exceed the safe JSON number range.
func (r *ObjectReader) Int64String() (int64, error) {
	s, err := r.String()
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return v, nil
}

// Time reads an ISO-8601 timestamp
func (r *ObjectReader) Time() (time.Time, error) {
	s, err := r.String()
	if err != nil {
		return time.Time{}, err
	}
	t, perr := time.Parse(time.RFC3339Nano, s)
	if perr != nil {
		return time.Time{}, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return t, nil
}

// Duration reads an ISO-8601 duration such as "PT30S". Values beyond the
// range of time.Duration come back as InfiniteDuration.
func (r *ObjectReader) Duration() (time.Duration, error) {
	s, err := r.String()
	if err != nil {
		return 0, err
	}
	d, perr := duration.Parse(s)
	if perr != nil {
		return 0, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	td := d.ToTimeDuration()
	negative := strings.HasPrefix(s, "-")
	if (td < 0 && !negative) || td == InfiniteDuration {
		return InfiniteDuration, nil
	}
	return td, nil
}

// UUID reads a GUID identifier
func (r *ObjectReader) UUID() (uuid.UUID, error) {
	s, err := r.String()
	if err != nil {
		return uuid.Nil, err
	}
	id, perr := uuid.Parse(s)
	if perr != nil {
		return uuid.Nil, r.fail(apierror.MalformedValue(r.record, r.name, perr))
	}
	return id, nil
}

func (r *ObjectReader) number() (string, error) {
	it, err := r.take(jsoniter.NumberValue, "number")
	if err != nil {
		return "", err
	}
	n := it.ReadNumber()
	if err := r.check(); err != nil {
		return "", err
	}
	return string(n), nil
}

// take checks that the current value has the wanted JSON type, marks it
// consumed and returns the iterator positioned on it.
func (r *ObjectReader) take(want jsoniter.ValueType, what string) (*jsoniter.Iterator, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if got := r.cur.WhatIsNext(); got != want {
		return nil, r.fail(apierror.MalformedValue(r.record, r.name,
			fmt.Errorf("expected %s, found %s", what, valueTypeName(got))))
	}
	r.consumed = true
	return r.cur, nil
}

func (r *ObjectReader) ready() error {
	if r.err != nil {
		return r.err
	}
	if r.cur == nil || r.consumed {
		return r.fail(apierror.MalformedValue(r.record, r.name, errors.New("no value to read")))
	}
	return nil
}

// check converts an iterator error into a MalformedValue. io.EOF is not an
// error here: a value that ends exactly at the end of its buffer is
// complete, and a truncated object is reported by the next Next call.
func (r *ObjectReader) check() error {
	if r.err != nil {
		return r.err
	}
	if err := r.cur.Error; err != nil && err != io.EOF {
		return r.fail(apierror.MalformedValue(r.record, r.name, err))
	}
	return nil
}

func (r *ObjectReader) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return r.err
}

// resume hands the remainder of the object to a union variant decoder.
// Properties buffered ahead of the discriminator are replayed first, in
// arrival order.
func (r *ObjectReader) resume(record string, buffered *orderedmap.OrderedMap[string, []byte], discriminator, kind string) *ObjectReader {
	r.done = true
	return &ObjectReader{
		record:        record,
		iter:          r.iter,
		pending:       buffered.Oldest(),
		discriminator: discriminator,
		kind:          kind,
		consumed:      true,
	}
}

// element returns a cursor over a single value of it
func (r *ObjectReader) element(it *jsoniter.Iterator, index int) *ObjectReader {
	return &ObjectReader{
		record: r.record,
		cur:    it,
		name:   fmt.Sprintf("%s[%d]", r.name, index),
		done:   true,
	}
}

func valueTypeName(t jsoniter.ValueType) string {
	switch t {
	case jsoniter.StringValue:
		return "string"
	case jsoniter.NumberValue:
		return "number"
	case jsoniter.NilValue:
		return "null"
	case jsoniter.BoolValue:
		return "boolean"
	case jsoniter.ArrayValue:
		return "array"
	case jsoniter.ObjectValue:
		return "object"
	default:
		return "invalid input"
	}
}
