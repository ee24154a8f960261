package codec

import (
	"fmt"
	"reflect"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/metrics"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// variant is the type-erased converter pair for one union member
type variant[T any] struct {
	name   string
	decode func(r *ObjectReader) (T, error)
	encode func(w *ObjectWriter, v T) error
}

// Union converts a family of record shapes that share a discriminator
// property. The discriminator value selects the member; the table is
// static once registration is done.
type Union[T any] struct {
	name          string
	discriminator string
	kindOf        func(T) string
	variants      *orderedmap.OrderedMap[string, variant[T]]
}

// NewUnion creates a union named name whose members are selected by the
// discriminator property. kindOf returns the discriminator value of a
// record being encoded.
func NewUnion[T any](name, discriminator string, kindOf func(T) string) *Union[T] {
	return &Union[T]{
		name:          name,
		discriminator: discriminator,
		kindOf:        kindOf,
		variants:      orderedmap.New[string, variant[T]](),
	}
}

// Register adds member V under discriminator value kind. V must be
// assignable to T. Registering the same kind twice panics. Encode accepts
// both V and *V; a pointer member is written as the value it points to.
func Register[T any, V any](u *Union[T], kind string, rec Record[V]) {
	if _, exists := u.variants.Get(kind); exists {
		panic(fmt.Sprintf("codec: %s: discriminator %q registered twice", u.name, kind))
	}
	var sample V
	if _, ok := any(sample).(T); !ok {
		panic(fmt.Sprintf("codec: %s: %s does not implement the union type", u.name, rec.Name))
	}

	u.variants.Set(kind, variant[T]{
		name: rec.Name,
		decode: func(r *ObjectReader) (T, error) {
			v, err := rec.Decode(r)
			if err != nil {
				var zero T
				return zero, err
			}
			return any(v).(T), nil
		},
		encode: func(w *ObjectWriter, v T) error {
			switch member := any(v).(type) {
			case V:
				return rec.Encode(w, member)
			case *V:
				return rec.Encode(w, *member)
			}
			return apierror.MalformedValue(u.name, u.discriminator,
				fmt.Errorf("%T is not a %s", v, rec.Name))
		},
	})
}

// Name returns the union's name
func (u *Union[T]) Name() string {
	return u.name
}

// Discriminator returns the name of the discriminator property
func (u *Union[T]) Discriminator() string {
	return u.discriminator
}

// Kinds returns the registered discriminator values in registration order
func (u *Union[T]) Kinds() []string {
	kinds := make([]string, 0, u.variants.Len())
	for pair := u.variants.Oldest(); pair != nil; pair = pair.Next() {
		kinds = append(kinds, pair.Key)
	}
	return kinds
}

// Record returns a converter pair for the whole union
func (u *Union[T]) Record() Record[T] {
	return Record[T]{Name: u.name, Decode: u.Decode, Encode: u.Encode}
}

// Decode reads properties until the discriminator is found, buffering the
// ones that precede it, then hands the buffered properties and the rest of
// the stream to the selected member's decoder.
func (u *Union[T]) Decode(r *ObjectReader) (T, error) {
	var zero T
	buffered := orderedmap.New[string, []byte]()

	for r.Next() {
		if r.Name() != u.discriminator {
			raw, err := r.Raw()
			if err != nil {
				return zero, err
			}
			buffered.Set(r.Name(), raw)
			continue
		}

		if r.IsNull() {
			return zero, apierror.MissingRequiredField(u.name, u.discriminator)
		}
		kind, err := r.String()
		if err != nil {
			return zero, err
		}
		v, ok := u.variants.Get(kind)
		if !ok {
			return zero, apierror.UnknownDiscriminator(u.name, u.discriminator, kind)
		}

		metrics.UnionDispatchTotal.WithLabelValues(u.name, kind).Inc()
		logger := log.WithDiscriminator(u.name, u.discriminator, kind)
		logger.Debug().
			Int("buffered", buffered.Len()).
			Str("record_type", v.name).
			Msg("dispatching union member")

		return v.decode(r.resume(v.name, buffered, u.discriminator, kind))
	}
	if err := r.Err(); err != nil {
		return zero, err
	}
	return zero, apierror.MissingRequiredField(u.name, u.discriminator)
}

// Encode writes the discriminator followed by the member's properties
func (u *Union[T]) Encode(w *ObjectWriter, v T) error {
	if isNil(v) {
		return apierror.MalformedValue(u.name, u.discriminator, fmt.Errorf("nil %s", u.name))
	}
	kind := u.kindOf(v)
	member, ok := u.variants.Get(kind)
	if !ok {
		return apierror.UnknownDiscriminator(u.name, u.discriminator, kind)
	}
	w.String(u.discriminator, kind)
	return member.encode(w, v)
}

// isNil reports a nil interface or a typed nil pointer, either of which
// would panic inside kindOf.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
