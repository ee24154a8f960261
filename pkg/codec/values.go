package codec

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/optional"
	jsoniter "github.com/json-iterator/go"
)

// Enum is implemented by string-backed enumerations with a closed value set
type Enum interface {
	~string
	IsValid() bool
}

// ReadOptional reads the current value with read, mapping JSON null to an
// unset Value. Method expressions such as (*ObjectReader).String work as
// read functions.
func ReadOptional[T any](r *ObjectReader, read func(*ObjectReader) (T, error)) (optional.Value[T], error) {
	if r.IsNull() {
		return optional.None[T](), nil
	}
	v, err := read(r)
	if err != nil {
		return optional.None[T](), err
	}
	return optional.Of(v), nil
}

// ReadEnum reads a string and checks it against the enum's value set
func ReadEnum[E Enum](r *ObjectReader) (E, error) {
	s, err := r.String()
	if err != nil {
		return "", err
	}
	e := E(s)
	if !e.IsValid() {
		return "", r.fail(apierror.MalformedValue(r.record, r.name, fmt.Errorf("unknown value %q", s)))
	}
	return e, nil
}

// ReadObject decodes the current value as a nested record
func ReadObject[T any](r *ObjectReader, rec Record[T]) (T, error) {
	var zero T
	it, err := r.take(jsoniter.ObjectValue, "object")
	if err != nil {
		return zero, err
	}
	v, err := rec.Decode(newObjectReader(rec.Name, it))
	if err != nil {
		return zero, r.fail(err)
	}
	return v, nil
}

// ObjectOf adapts a record converter to a read function, for use with
// ReadArray and ReadOptional.
func ObjectOf[T any](rec Record[T]) func(*ObjectReader) (T, error) {
	return func(r *ObjectReader) (T, error) {
		return ReadObject(r, rec)
	}
}

// ReadArray decodes the current value as an ordered sequence, reading each
// element with read.
func ReadArray[T any](r *ObjectReader, read func(*ObjectReader) (T, error)) ([]T, error) {
	it, err := r.take(jsoniter.ArrayValue, "array")
	if err != nil {
		return nil, err
	}
	var items []T
	for i := 0; it.ReadArray(); i++ {
		elem := r.element(it, i)
		v, err := read(elem)
		if err != nil {
			return nil, r.fail(err)
		}
		if !elem.consumed {
			it.Skip()
		}
		if err := r.check(); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return items, nil
}

// Require returns the held value, or a MissingRequiredField error naming
// field when v is unset.
func Require[T any](record, field string, v optional.Value[T]) (T, error) {
	val, ok := v.Get()
	if !ok {
		return val, apierror.MissingRequiredField(record, field)
	}
	return val, nil
}

// WriteOptional emits the property only when v is set. Method expressions
// such as (*ObjectWriter).String work as write functions.
func WriteOptional[T any](w *ObjectWriter, name string, v optional.Value[T], write func(*ObjectWriter, string, T)) {
	if val, ok := v.Get(); ok {
		write(w, name, val)
	}
}

// WriteEnum emits an enum as its canonical string name
func WriteEnum[E Enum](w *ObjectWriter, name string, v E) {
	if w.err != nil {
		return
	}
	if !v.IsValid() {
		w.fail(apierror.MalformedValue(w.record, name, fmt.Errorf("unknown value %q", string(v))))
		return
	}
	w.String(name, string(v))
}

// WriteObject emits a nested record
func WriteObject[T any](w *ObjectWriter, name string, v T, rec Record[T]) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.fail(encodeObject(w.stream, v, rec))
}

// ObjectWriterOf adapts a record converter to a write function
func ObjectWriterOf[T any](rec Record[T]) func(*ObjectWriter, string, T) {
	return func(w *ObjectWriter, name string, v T) {
		WriteObject(w, name, v, rec)
	}
}

// WriteArray emits items as a JSON array, writing each with write
func WriteArray[T any](w *ObjectWriter, name string, items []T, write func(*ObjectWriter, T)) {
	if w.err != nil {
		return
	}
	w.field(name)
	w.stream.WriteArrayStart()
	for i, item := range items {
		if i > 0 {
			w.stream.WriteMore()
		}
		write(w, item)
		if w.err != nil {
			return
		}
	}
	w.stream.WriteArrayEnd()
}
