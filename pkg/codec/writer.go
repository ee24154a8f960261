package codec

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sosodev/duration"
)

// ObjectWriter emits the properties of one JSON object in call order.
// Field order is therefore the order in which a converter calls the write
// methods, which keeps it fixed per record shape.
type ObjectWriter struct {
	record string
	stream *jsoniter.Stream
	fields int
	err    error
}

// Record returns the name of the record being encoded
func (w *ObjectWriter) Record() string {
	return w.record
}

// Err returns the first error hit while writing, if any
func (w *ObjectWriter) Err() error {
	return w.err
}

// String writes a string property
func (w *ObjectWriter) String(name, v string) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.stream.WriteString(v)
}

// Bool writes a boolean property
func (w *ObjectWriter) Bool(name string, v bool) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.stream.WriteBool(v)
}

// Int32 writes a 32-bit integer property
func (w *ObjectWriter) Int32(name string, v int32) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.stream.WriteInt32(v)
}

// Int64 writes a 64-bit integer property
func (w *ObjectWriter) Int64(name string, v int64) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.stream.WriteInt64(v)
}

// Int64String writes a 64-bit integer as a decimal string
func (w *ObjectWriter) Int64String(name string, v int64) {
	w.String(name, strconv.FormatInt(v, 10))
}

// Float64 writes a floating point property. NaN and infinities have no
// JSON form and fail the encode.
func (w *ObjectWriter) Float64(name string, v float64) {
	if w.err != nil {
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.fail(apierror.MalformedValue(w.record, name, fmt.Errorf("unsupported number %v", v)))
		return
	}
	w.field(name)
	w.stream.WriteFloat64(v)
}

// Time writes an ISO-8601 timestamp in UTC
func (w *ObjectWriter) Time(name string, v time.Time) {
	w.String(name, v.UTC().Format(time.RFC3339Nano))
}

// Duration writes an ISO-8601 duration
func (w *ObjectWriter) Duration(name string, v time.Duration) {
	w.String(name, duration.Format(v))
}

// UUID writes a GUID identifier in canonical form
func (w *ObjectWriter) UUID(name string, v uuid.UUID) {
	w.String(name, v.String())
}

func (w *ObjectWriter) field(name string) {
	if w.fields > 0 {
		w.stream.WriteMore()
	}
	w.stream.WriteObjectField(name)
	w.fields++
}

func (w *ObjectWriter) fail(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
}

// StringElement writes a string array element
func StringElement(w *ObjectWriter, v string) {
	w.stream.WriteString(v)
}

// Int64Element writes an integer array element
func Int64Element(w *ObjectWriter, v int64) {
	w.stream.WriteInt64(v)
}

// ByteElement writes a byte as an integer array element
func ByteElement(w *ObjectWriter, v byte) {
	w.stream.WriteUint8(v)
}

// ObjectElement adapts a record converter to an array element writer
func ObjectElement[T any](rec Record[T]) func(*ObjectWriter, T) {
	return func(w *ObjectWriter, v T) {
		w.fail(encodeObject(w.stream, v, rec))
	}
}

func encodeObject[T any](stream *jsoniter.Stream, v T, rec Record[T]) error {
	w := &ObjectWriter{record: rec.Name, stream: stream}
	stream.WriteObjectStart()
	if err := rec.Encode(w, v); err != nil {
		return err
	}
	if w.err != nil {
		return w.err
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return apierror.MalformedValue(rec.Name, "object", stream.Error)
	}
	return nil
}
