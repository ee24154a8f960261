package model

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type is a named record type that can be converted without knowing its Go
// type at compile time. The CLI and the archive work through it.
type Type struct {
	// Name is the registry key, e.g. "service-description"
	Name string
	// Record is the converter's record name, e.g. "ServiceDescription"
	Record string
	// Variants lists the discriminator values of a union type
	Variants []string

	decode func(data []byte) (any, error)
	encode func(v any, indent bool) ([]byte, error)
}

// Decode converts a JSON document to a record of this type
func (t Type) Decode(data []byte) (any, error) {
	return t.decode(data)
}

// Encode converts a record of this type to compact JSON
func (t Type) Encode(v any) ([]byte, error) {
	return t.encode(v, false)
}

// EncodeIndent converts a record of this type to indented JSON
func (t Type) EncodeIndent(v any) ([]byte, error) {
	return t.encode(v, true)
}

// Canonicalize decodes data and re-encodes it, dropping unknown
// properties and putting the rest in canonical order.
func (t Type) Canonicalize(data []byte, indent bool) ([]byte, error) {
	v, err := t.decode(data)
	if err != nil {
		return nil, err
	}
	return t.encode(v, indent)
}

func recordType[T any](name string, rec codec.Record[T]) Type {
	return Type{
		Name:   name,
		Record: rec.Name,
		decode: func(data []byte) (any, error) {
			return codec.Unmarshal(data, rec)
		},
		encode: func(v any, indent bool) ([]byte, error) {
			typed, ok := v.(T)
			if !ok {
				return nil, apierror.NewCode(fmt.Sprintf("%s: cannot encode %T", rec.Name, v), apierror.CodeInvalidArgument, false)
			}
			if indent {
				return codec.MarshalIndent(typed, rec)
			}
			return codec.Marshal(typed, rec)
		},
	}
}

func unionType[T any](name string, u *codec.Union[T]) Type {
	t := recordType(name, u.Record())
	t.Variants = u.Kinds()
	return t
}

// Registry maps type names to record types, in registration order
type Registry struct {
	types *orderedmap.OrderedMap[string, Type]
}

// NewRegistry returns a registry holding types
func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: orderedmap.New[string, Type]()}
	for _, t := range types {
		r.types.Set(t.Name, t)
	}
	return r
}

// Lookup returns the type registered under name
func (r *Registry) Lookup(name string) (Type, error) {
	t, ok := r.types.Get(name)
	if !ok {
		return Type{}, apierror.NewCode(fmt.Sprintf("unknown record type %q", name), apierror.CodeNotFound, false)
	}
	return t, nil
}

// Names returns the registered type names in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, r.types.Len())
	for pair := r.types.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Types returns the registered types in registration order
func (r *Registry) Types() []Type {
	types := make([]Type, 0, r.types.Len())
	for pair := r.types.Oldest(); pair != nil; pair = pair.Next() {
		types = append(types, pair.Value)
	}
	return types
}

// Types holds every record type in this package
var Types = NewRegistry(
	recordType("health-information", HealthInformationRecord),
	recordType("health-event", HealthEventRecord),
	recordType("replica-health-state-filter", ReplicaHealthStateFilterRecord),
	recordType("partition-health-state-filter", PartitionHealthStateFilterRecord),
	recordType("service-health-state-filter", ServiceHealthStateFilterRecord),
	recordType("application-health-state-filter", ApplicationHealthStateFilterRecord),
	recordType("replica-health-state-chunk-list", ReplicaHealthStateChunkListRecord),
	recordType("partition-health-state-chunk-list", PartitionHealthStateChunkListRecord),
	recordType("service-health-state-chunk-list", ServiceHealthStateChunkListRecord),
	unionType("partition-scheme-description", PartitionSchemes),
	unionType("service-description", ServiceDescriptions),
	unionType("service-info", ServiceInfos),
	unionType("replica-info", ReplicaInfos),
	unionType("fabric-event", FabricEvents),
)
