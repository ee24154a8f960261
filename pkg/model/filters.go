package model

import (
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/uuid"
)

// ReplicaHealthStateFilter selects replicas in a cluster health chunk
// query. An unset HealthStateFilter means HealthStateFilterDefault.
type ReplicaHealthStateFilter struct {
	ReplicaOrInstanceIDFilter optional.Value[string]
	HealthStateFilter         optional.Value[HealthStateFilter]
}

// Matches reports whether a replica chunk passes the filter
func (f ReplicaHealthStateFilter) Matches(c ReplicaHealthStateChunk) bool {
	if id, ok := f.ReplicaOrInstanceIDFilter.Get(); ok && id != c.ReplicaOrInstanceID {
		return false
	}
	return f.HealthStateFilter.OrElse(HealthStateFilterDefault).Matches(c.HealthState)
}

func (f ReplicaHealthStateFilter) Validate() error { return nil }

// PartitionHealthStateFilter selects partitions and, through
// ReplicaFilters, the replicas returned under each.
type PartitionHealthStateFilter struct {
	PartitionIDFilter optional.Value[uuid.UUID]
	HealthStateFilter optional.Value[HealthStateFilter]
	ReplicaFilters    []ReplicaHealthStateFilter
}

// Matches reports whether a partition chunk passes the filter. Replica
// filters are not consulted.
func (f PartitionHealthStateFilter) Matches(c PartitionHealthStateChunk) bool {
	if id, ok := f.PartitionIDFilter.Get(); ok && id != c.PartitionID {
		return false
	}
	return f.HealthStateFilter.OrElse(HealthStateFilterDefault).Matches(c.HealthState)
}

func (f PartitionHealthStateFilter) Validate() error {
	for _, rf := range f.ReplicaFilters {
		if err := rf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ServiceHealthStateFilter selects services and their partitions
type ServiceHealthStateFilter struct {
	ServiceNameFilter optional.Value[string]
	HealthStateFilter optional.Value[HealthStateFilter]
	PartitionFilters  []PartitionHealthStateFilter
}

// Matches reports whether a service chunk passes the filter. Partition
// filters are not consulted.
func (f ServiceHealthStateFilter) Matches(c ServiceHealthStateChunk) bool {
	if name, ok := f.ServiceNameFilter.Get(); ok && name != c.ServiceName {
		return false
	}
	return f.HealthStateFilter.OrElse(HealthStateFilterDefault).Matches(c.HealthState)
}

func (f ServiceHealthStateFilter) Validate() error {
	for _, pf := range f.PartitionFilters {
		if err := pf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationHealthStateFilter is the root of a chunk query description
type ApplicationHealthStateFilter struct {
	ApplicationNameFilter     optional.Value[string]
	ApplicationTypeNameFilter optional.Value[string]
	HealthStateFilter         optional.Value[HealthStateFilter]
	ServiceFilters            []ServiceHealthStateFilter
}

func (f ApplicationHealthStateFilter) Validate() error {
	for _, sf := range f.ServiceFilters {
		if err := sf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f ApplicationHealthStateFilter) MarshalJSON() ([]byte, error) {
	return codec.Marshal(f, ApplicationHealthStateFilterRecord)
}

// UnmarshalJSON implements json.Unmarshaler
func (f *ApplicationHealthStateFilter) UnmarshalJSON(data []byte) error {
	v, err := codec.Unmarshal(data, ApplicationHealthStateFilterRecord)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func readHealthStateFilter(r *codec.ObjectReader) (HealthStateFilter, error) {
	n, err := r.Int64()
	return HealthStateFilter(n), err
}

func writeHealthStateFilter(w *codec.ObjectWriter, name string, f HealthStateFilter) {
	w.Int64(name, int64(f))
}

var ReplicaHealthStateFilterRecord = codec.Record[ReplicaHealthStateFilter]{
	Name: "ReplicaHealthStateFilter",
	Decode: func(r *codec.ObjectReader) (ReplicaHealthStateFilter, error) {
		var (
			f   ReplicaHealthStateFilter
			err error
		)
		for r.Next() {
			switch r.Name() {
			case "ReplicaOrInstanceIdFilter":
				f.ReplicaOrInstanceIDFilter, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
			case "HealthStateFilter":
				f.HealthStateFilter, err = codec.ReadOptional(r, readHealthStateFilter)
			default:
				r.Skip()
			}
			if err != nil {
				return ReplicaHealthStateFilter{}, err
			}
		}
		return f, r.Err()
	},
	Encode: func(w *codec.ObjectWriter, f ReplicaHealthStateFilter) error {
		codec.WriteOptional(w, "ReplicaOrInstanceIdFilter", f.ReplicaOrInstanceIDFilter, (*codec.ObjectWriter).String)
		codec.WriteOptional(w, "HealthStateFilter", f.HealthStateFilter, writeHealthStateFilter)
		return w.Err()
	},
}

var PartitionHealthStateFilterRecord = codec.Record[PartitionHealthStateFilter]{
	Name: "PartitionHealthStateFilter",
	Decode: func(r *codec.ObjectReader) (PartitionHealthStateFilter, error) {
		var (
			f   PartitionHealthStateFilter
			err error
		)
		for r.Next() {
			switch r.Name() {
			case "PartitionIdFilter":
				f.PartitionIDFilter, err = codec.ReadOptional(r, (*codec.ObjectReader).UUID)
			case "HealthStateFilter":
				f.HealthStateFilter, err = codec.ReadOptional(r, readHealthStateFilter)
			case "ReplicaFilters":
				f.ReplicaFilters, err = readOptionalArray(r, codec.ObjectOf(ReplicaHealthStateFilterRecord))
			default:
				r.Skip()
			}
			if err != nil {
				return PartitionHealthStateFilter{}, err
			}
		}
		return f, r.Err()
	},
	Encode: func(w *codec.ObjectWriter, f PartitionHealthStateFilter) error {
		codec.WriteOptional(w, "PartitionIdFilter", f.PartitionIDFilter, (*codec.ObjectWriter).UUID)
		codec.WriteOptional(w, "HealthStateFilter", f.HealthStateFilter, writeHealthStateFilter)
		if len(f.ReplicaFilters) > 0 {
			codec.WriteArray(w, "ReplicaFilters", f.ReplicaFilters, codec.ObjectElement(ReplicaHealthStateFilterRecord))
		}
		return w.Err()
	},
}

var ServiceHealthStateFilterRecord = codec.Record[ServiceHealthStateFilter]{
	Name: "ServiceHealthStateFilter",
	Decode: func(r *codec.ObjectReader) (ServiceHealthStateFilter, error) {
		var (
			f   ServiceHealthStateFilter
			err error
		)
		for r.Next() {
			switch r.Name() {
			case "ServiceNameFilter":
				f.ServiceNameFilter, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
			case "HealthStateFilter":
				f.HealthStateFilter, err = codec.ReadOptional(r, readHealthStateFilter)
			case "PartitionFilters":
				f.PartitionFilters, err = readOptionalArray(r, codec.ObjectOf(PartitionHealthStateFilterRecord))
			default:
				r.Skip()
			}
			if err != nil {
				return ServiceHealthStateFilter{}, err
			}
		}
		return f, r.Err()
	},
	Encode: func(w *codec.ObjectWriter, f ServiceHealthStateFilter) error {
		codec.WriteOptional(w, "ServiceNameFilter", f.ServiceNameFilter, (*codec.ObjectWriter).String)
		codec.WriteOptional(w, "HealthStateFilter", f.HealthStateFilter, writeHealthStateFilter)
		if len(f.PartitionFilters) > 0 {
			codec.WriteArray(w, "PartitionFilters", f.PartitionFilters, codec.ObjectElement(PartitionHealthStateFilterRecord))
		}
		return w.Err()
	},
}

var ApplicationHealthStateFilterRecord = codec.Record[ApplicationHealthStateFilter]{
	Name: "ApplicationHealthStateFilter",
	Decode: func(r *codec.ObjectReader) (ApplicationHealthStateFilter, error) {
		var (
			f   ApplicationHealthStateFilter
			err error
		)
		for r.Next() {
			switch r.Name() {
			case "ApplicationNameFilter":
				f.ApplicationNameFilter, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
			case "ApplicationTypeNameFilter":
				f.ApplicationTypeNameFilter, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
			case "HealthStateFilter":
				f.HealthStateFilter, err = codec.ReadOptional(r, readHealthStateFilter)
			case "ServiceFilters":
				f.ServiceFilters, err = readOptionalArray(r, codec.ObjectOf(ServiceHealthStateFilterRecord))
			default:
				r.Skip()
			}
			if err != nil {
				return ApplicationHealthStateFilter{}, err
			}
		}
		if err := r.Err(); err != nil {
			return ApplicationHealthStateFilter{}, err
		}
		return f, f.Validate()
	},
	Encode: func(w *codec.ObjectWriter, f ApplicationHealthStateFilter) error {
		if err := f.Validate(); err != nil {
			return err
		}
		codec.WriteOptional(w, "ApplicationNameFilter", f.ApplicationNameFilter, (*codec.ObjectWriter).String)
		codec.WriteOptional(w, "ApplicationTypeNameFilter", f.ApplicationTypeNameFilter, (*codec.ObjectWriter).String)
		codec.WriteOptional(w, "HealthStateFilter", f.HealthStateFilter, writeHealthStateFilter)
		if len(f.ServiceFilters) > 0 {
			codec.WriteArray(w, "ServiceFilters", f.ServiceFilters, codec.ObjectElement(ServiceHealthStateFilterRecord))
		}
		return w.Err()
	},
}

// readOptionalArray reads an array that may be null or absent
func readOptionalArray[T any](r *codec.ObjectReader, read func(*codec.ObjectReader) (T, error)) ([]T, error) {
	if r.IsNull() {
		return nil, nil
	}
	return codec.ReadArray(r, read)
}
