package model

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
)

// PartitionScheme discriminates PartitionSchemeDescription shapes
type PartitionScheme string

const (
	PartitionSchemeSingleton         PartitionScheme = "Singleton"
	PartitionSchemeUniformInt64Range PartitionScheme = "UniformInt64Range"
	PartitionSchemeNamed             PartitionScheme = "Named"
)

func (s PartitionScheme) IsValid() bool {
	switch s {
	case PartitionSchemeSingleton, PartitionSchemeUniformInt64Range, PartitionSchemeNamed:
		return true
	}
	return false
}

// PartitionSchemeDescription describes how a service is partitioned. The
// concrete types are SingletonPartitionSchemeDescription,
// UniformInt64RangePartitionSchemeDescription and
// NamedPartitionSchemeDescription.
type PartitionSchemeDescription interface {
	PartitionScheme() PartitionScheme
	Validate() error
}

// SingletonPartitionSchemeDescription is a service with one partition
type SingletonPartitionSchemeDescription struct{}

func (SingletonPartitionSchemeDescription) PartitionScheme() PartitionScheme {
	return PartitionSchemeSingleton
}

func (SingletonPartitionSchemeDescription) Validate() error { return nil }

// UniformInt64RangePartitionSchemeDescription splits the key range
// [LowKey, HighKey] evenly across Count partitions.
type UniformInt64RangePartitionSchemeDescription struct {
	Count   int32
	LowKey  int64
	HighKey int64
}

func NewUniformInt64RangePartitionSchemeDescription(count int32, low, high int64) (UniformInt64RangePartitionSchemeDescription, error) {
	d := UniformInt64RangePartitionSchemeDescription{Count: count, LowKey: low, HighKey: high}
	return d, d.Validate()
}

func (UniformInt64RangePartitionSchemeDescription) PartitionScheme() PartitionScheme {
	return PartitionSchemeUniformInt64Range
}

func (d UniformInt64RangePartitionSchemeDescription) Validate() error {
	const record = "UniformInt64RangePartitionSchemeDescription"
	if d.Count <= 0 {
		return apierror.MalformedValue(record, "Count", fmt.Errorf("partition count %d must be positive", d.Count))
	}
	if d.LowKey > d.HighKey {
		return apierror.MalformedValue(record, "LowKey", fmt.Errorf("low key %d exceeds high key %d", d.LowKey, d.HighKey))
	}
	return nil
}

// NamedPartitionSchemeDescription has one partition per name
type NamedPartitionSchemeDescription struct {
	Count int32
	Names []string
}

// NewNamedPartitionSchemeDescription derives Count from names
func NewNamedPartitionSchemeDescription(names ...string) (NamedPartitionSchemeDescription, error) {
	d := NamedPartitionSchemeDescription{Count: int32(len(names)), Names: names}
	for i, name := range names {
		if err := requireString("NamedPartitionSchemeDescription", fmt.Sprintf("Names[%d]", i), name); err != nil {
			return d, err
		}
	}
	return d, d.Validate()
}

func (NamedPartitionSchemeDescription) PartitionScheme() PartitionScheme {
	return PartitionSchemeNamed
}

func (d NamedPartitionSchemeDescription) Validate() error {
	const record = "NamedPartitionSchemeDescription"
	if len(d.Names) == 0 {
		return apierror.MissingRequiredField(record, "Names")
	}
	if int(d.Count) != len(d.Names) {
		return apierror.MalformedValue(record, "Count", fmt.Errorf("count %d does not match %d names", d.Count, len(d.Names)))
	}
	return nil
}

// PartitionSchemes converts PartitionSchemeDescription values
var PartitionSchemes = newPartitionSchemes()

func newPartitionSchemes() *codec.Union[PartitionSchemeDescription] {
	u := codec.NewUnion("PartitionSchemeDescription", "PartitionScheme",
		func(d PartitionSchemeDescription) string { return string(d.PartitionScheme()) })

	codec.Register(u, string(PartitionSchemeSingleton), codec.Record[SingletonPartitionSchemeDescription]{
		Name: "SingletonPartitionSchemeDescription",
		Decode: func(r *codec.ObjectReader) (SingletonPartitionSchemeDescription, error) {
			for r.Next() {
				r.Skip()
			}
			return SingletonPartitionSchemeDescription{}, r.Err()
		},
		Encode: func(w *codec.ObjectWriter, _ SingletonPartitionSchemeDescription) error {
			return w.Err()
		},
	})

	codec.Register(u, string(PartitionSchemeUniformInt64Range), codec.Record[UniformInt64RangePartitionSchemeDescription]{
		Name:   "UniformInt64RangePartitionSchemeDescription",
		Decode: decodeUniformInt64Range,
		Encode: func(w *codec.ObjectWriter, d UniformInt64RangePartitionSchemeDescription) error {
			if err := d.Validate(); err != nil {
				return err
			}
			w.Int32("Count", d.Count)
			w.Int64String("LowKey", d.LowKey)
			w.Int64String("HighKey", d.HighKey)
			return w.Err()
		},
	})

	codec.Register(u, string(PartitionSchemeNamed), codec.Record[NamedPartitionSchemeDescription]{
		Name:   "NamedPartitionSchemeDescription",
		Decode: decodeNamedPartitionScheme,
		Encode: func(w *codec.ObjectWriter, d NamedPartitionSchemeDescription) error {
			if err := d.Validate(); err != nil {
				return err
			}
			w.Int32("Count", d.Count)
			codec.WriteArray(w, "Names", d.Names, codec.StringElement)
			return w.Err()
		},
	})
	return u
}

func decodeUniformInt64Range(r *codec.ObjectReader) (UniformInt64RangePartitionSchemeDescription, error) {
	var (
		count     optional.Value[int32]
		low, high optional.Value[int64]
		err       error
	)
	for r.Next() {
		switch r.Name() {
		case "Count":
			count, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		case "LowKey":
			low, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64String)
		case "HighKey":
			high, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64String)
		default:
			r.Skip()
		}
		if err != nil {
			return UniformInt64RangePartitionSchemeDescription{}, err
		}
	}
	if err := r.Err(); err != nil {
		return UniformInt64RangePartitionSchemeDescription{}, err
	}

	var d UniformInt64RangePartitionSchemeDescription
	if d.Count, err = codec.Require(r.Record(), "Count", count); err != nil {
		return d, err
	}
	if d.LowKey, err = codec.Require(r.Record(), "LowKey", low); err != nil {
		return d, err
	}
	if d.HighKey, err = codec.Require(r.Record(), "HighKey", high); err != nil {
		return d, err
	}
	return NewUniformInt64RangePartitionSchemeDescription(d.Count, d.LowKey, d.HighKey)
}

func decodeNamedPartitionScheme(r *codec.ObjectReader) (NamedPartitionSchemeDescription, error) {
	var (
		count optional.Value[int32]
		names optional.Value[[]string]
		err   error
	)
	for r.Next() {
		switch r.Name() {
		case "Count":
			count, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		case "Names":
			names, err = codec.ReadOptional(r, func(r *codec.ObjectReader) ([]string, error) {
				return codec.ReadArray(r, (*codec.ObjectReader).String)
			})
		default:
			r.Skip()
		}
		if err != nil {
			return NamedPartitionSchemeDescription{}, err
		}
	}
	if err := r.Err(); err != nil {
		return NamedPartitionSchemeDescription{}, err
	}

	var d NamedPartitionSchemeDescription
	if d.Count, err = codec.Require(r.Record(), "Count", count); err != nil {
		return NamedPartitionSchemeDescription{}, err
	}
	if d.Names, err = codec.Require(r.Record(), "Names", names); err != nil {
		return NamedPartitionSchemeDescription{}, err
	}
	return d, d.Validate()
}

// UnmarshalPartitionSchemeDescription decodes any partition scheme shape
func UnmarshalPartitionSchemeDescription(data []byte) (PartitionSchemeDescription, error) {
	return codec.Unmarshal(data, PartitionSchemes.Record())
}

// MarshalPartitionSchemeDescription encodes d with its PartitionScheme first
func MarshalPartitionSchemeDescription(d PartitionSchemeDescription) ([]byte, error) {
	return codec.Marshal(d, PartitionSchemes.Record())
}
