package codec

import (
	"errors"
	"io"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
)

var indentConfig = jsoniter.Config{IndentionStep: 2}.Froze()

// DecodeFunc builds a record from an object's property stream
type DecodeFunc[T any] func(r *ObjectReader) (T, error)

// EncodeFunc writes a record's properties. The enclosing braces are written
// by the caller.
type EncodeFunc[T any] func(w *ObjectWriter, v T) error

// Record is the converter pair for one record shape
type Record[T any] struct {
	Name   string
	Decode DecodeFunc[T]
	Encode EncodeFunc[T]
}

// Unmarshal decodes a complete JSON document into a record
func Unmarshal[T any](data []byte, rec Record[T]) (T, error) {
	it := jsoniter.ConfigDefault.BorrowIterator(data)
	defer jsoniter.ConfigDefault.ReturnIterator(it)
	return decode(it, rec)
}

// DecodeStream decodes one record from a reader, such as a response body
// supplied by a transport.
func DecodeStream[T any](src io.Reader, rec Record[T]) (T, error) {
	it := jsoniter.Parse(jsoniter.ConfigDefault, src, 4096)
	return decode(it, rec)
}

func decode[T any](it *jsoniter.Iterator, rec Record[T]) (T, error) {
	timer := metrics.NewTimer()
	v, err := decodeDocument(it, rec)
	timer.ObserveDurationVec(metrics.CodecDuration, metrics.OperationDecode)
	metrics.CodecOperationsTotal.WithLabelValues(rec.Name, metrics.OperationDecode, metrics.Result(err)).Inc()
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func decodeDocument[T any](it *jsoniter.Iterator, rec Record[T]) (T, error) {
	var zero T
	switch next := it.WhatIsNext(); next {
	case jsoniter.ObjectValue:
	case jsoniter.InvalidValue:
		if it.Error != nil && it.Error != io.EOF {
			return zero, apierror.MalformedValue(rec.Name, "document", it.Error)
		}
		return zero, apierror.MalformedValue(rec.Name, "document", errUnexpectedEnd)
	default:
		return zero, apierror.MalformedValue(rec.Name, "document",
			errors.New("expected object, found "+valueTypeName(next)))
	}

	v, err := rec.Decode(newObjectReader(rec.Name, it))
	if err != nil {
		return zero, err
	}
	if next := it.WhatIsNext(); next != jsoniter.InvalidValue {
		return zero, apierror.MalformedValue(rec.Name, "document",
			errors.New("unexpected data after object"))
	}
	return v, nil
}

// UnmarshalArray decodes a JSON array document whose elements are all
// records of one shape, such as a page of events.
func UnmarshalArray[T any](data []byte, rec Record[T]) ([]T, error) {
	it := jsoniter.ConfigDefault.BorrowIterator(data)
	defer jsoniter.ConfigDefault.ReturnIterator(it)

	timer := metrics.NewTimer()
	items, err := decodeArrayDocument(it, rec)
	timer.ObserveDurationVec(metrics.CodecDuration, metrics.OperationDecode)
	metrics.CodecOperationsTotal.WithLabelValues(rec.Name, metrics.OperationDecode, metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func decodeArrayDocument[T any](it *jsoniter.Iterator, rec Record[T]) ([]T, error) {
	if next := it.WhatIsNext(); next != jsoniter.ArrayValue {
		return nil, apierror.MalformedValue(rec.Name, "document",
			errors.New("expected array, found "+valueTypeName(next)))
	}
	root := &ObjectReader{record: rec.Name, cur: it, name: "document", done: true}
	items, err := ReadArray(root, ObjectOf(rec))
	if err != nil {
		return nil, err
	}
	if next := it.WhatIsNext(); next != jsoniter.InvalidValue {
		return nil, apierror.MalformedValue(rec.Name, "document",
			errors.New("unexpected data after array"))
	}
	return items, nil
}

// Marshal encodes a record as compact JSON
func Marshal[T any](v T, rec Record[T]) ([]byte, error) {
	return marshal(jsoniter.ConfigDefault, v, rec)
}

// MarshalIndent encodes a record as JSON indented by two spaces
func MarshalIndent[T any](v T, rec Record[T]) ([]byte, error) {
	return marshal(indentConfig, v, rec)
}

func marshal[T any](cfg jsoniter.API, v T, rec Record[T]) ([]byte, error) {
	timer := metrics.NewTimer()
	stream := cfg.BorrowStream(nil)
	defer cfg.ReturnStream(stream)

	err := encodeObject(stream, v, rec)
	timer.ObserveDurationVec(metrics.CodecDuration, metrics.OperationEncode)
	metrics.CodecOperationsTotal.WithLabelValues(rec.Name, metrics.OperationEncode, metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
