package model

import (
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/uuid"
)

// validator is implemented by every record
type validator interface {
	Validate() error
}

// ChunkList is one page of a health state chunk query. TotalCount is the
// number of entities that matched, which can exceed len(Items).
type ChunkList[T validator] struct {
	TotalCount int64
	Items      []T
}

// Validate checks the count and every item
func (l ChunkList[T]) Validate() error {
	if err := requireNonNegative("ChunkList", "TotalCount", l.TotalCount); err != nil {
		return err
	}
	for _, item := range l.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type (
	ReplicaHealthStateChunkList   = ChunkList[ReplicaHealthStateChunk]
	PartitionHealthStateChunkList = ChunkList[PartitionHealthStateChunk]
	ServiceHealthStateChunkList   = ChunkList[ServiceHealthStateChunk]
)

func chunkListRecord[T validator](name string, item codec.Record[T]) codec.Record[ChunkList[T]] {
	return codec.Record[ChunkList[T]]{
		Name: name,
		Decode: func(r *codec.ObjectReader) (ChunkList[T], error) {
			var (
				l     ChunkList[T]
				total optional.Value[int64]
				err   error
			)
			for r.Next() {
				switch r.Name() {
				case "TotalCount":
					total, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64)
				case "Items":
					l.Items, err = readOptionalArray(r, codec.ObjectOf(item))
				default:
					r.Skip()
				}
				if err != nil {
					return ChunkList[T]{}, err
				}
			}
			if err := r.Err(); err != nil {
				return ChunkList[T]{}, err
			}
			if l.TotalCount, err = codec.Require(name, "TotalCount", total); err != nil {
				return ChunkList[T]{}, err
			}
			return l, l.Validate()
		},
		Encode: func(w *codec.ObjectWriter, l ChunkList[T]) error {
			if err := l.Validate(); err != nil {
				return err
			}
			w.Int64("TotalCount", l.TotalCount)
			codec.WriteArray(w, "Items", l.Items, codec.ObjectElement(item))
			return w.Err()
		},
	}
}

// ReplicaHealthStateChunk is the health of one replica or instance
type ReplicaHealthStateChunk struct {
	ReplicaOrInstanceID string
	HealthState         HealthState
}

func NewReplicaHealthStateChunk(id string, state HealthState) (ReplicaHealthStateChunk, error) {
	c := ReplicaHealthStateChunk{ReplicaOrInstanceID: id, HealthState: state}
	if err := requireString("ReplicaHealthStateChunk", "ReplicaOrInstanceId", id); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c ReplicaHealthStateChunk) Validate() error {
	return requireEnum("ReplicaHealthStateChunk", "HealthState", c.HealthState)
}

// PartitionHealthStateChunk is the health of one partition, with its
// replicas when the query asked for them.
type PartitionHealthStateChunk struct {
	PartitionID              uuid.UUID
	HealthState              HealthState
	ReplicaHealthStateChunks optional.Value[ReplicaHealthStateChunkList]
}

func NewPartitionHealthStateChunk(id uuid.UUID, state HealthState) (PartitionHealthStateChunk, error) {
	c := PartitionHealthStateChunk{PartitionID: id, HealthState: state}
	if err := requireUUID("PartitionHealthStateChunk", "PartitionId", id); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c PartitionHealthStateChunk) WithReplicaHealthStateChunks(l ReplicaHealthStateChunkList) PartitionHealthStateChunk {
	c.ReplicaHealthStateChunks = optional.Of(l)
	return c
}

func (c PartitionHealthStateChunk) Validate() error {
	if err := requireEnum("PartitionHealthStateChunk", "HealthState", c.HealthState); err != nil {
		return err
	}
	if l, ok := c.ReplicaHealthStateChunks.Get(); ok {
		return l.Validate()
	}
	return nil
}

// ServiceHealthStateChunk is the health of one service, with its
// partitions when the query asked for them.
type ServiceHealthStateChunk struct {
	ServiceName                string
	HealthState                HealthState
	PartitionHealthStateChunks optional.Value[PartitionHealthStateChunkList]
}

func NewServiceHealthStateChunk(name string, state HealthState) (ServiceHealthStateChunk, error) {
	c := ServiceHealthStateChunk{ServiceName: name, HealthState: state}
	if err := requireString("ServiceHealthStateChunk", "ServiceName", name); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c ServiceHealthStateChunk) WithPartitionHealthStateChunks(l PartitionHealthStateChunkList) ServiceHealthStateChunk {
	c.PartitionHealthStateChunks = optional.Of(l)
	return c
}

func (c ServiceHealthStateChunk) Validate() error {
	if err := requireEnum("ServiceHealthStateChunk", "HealthState", c.HealthState); err != nil {
		return err
	}
	if l, ok := c.PartitionHealthStateChunks.Get(); ok {
		return l.Validate()
	}
	return nil
}

var (
	ReplicaHealthStateChunkRecord = codec.Record[ReplicaHealthStateChunk]{
		Name:   "ReplicaHealthStateChunk",
		Decode: decodeReplicaHealthStateChunk,
		Encode: func(w *codec.ObjectWriter, c ReplicaHealthStateChunk) error {
			if err := c.Validate(); err != nil {
				return err
			}
			w.String("ReplicaOrInstanceId", c.ReplicaOrInstanceID)
			codec.WriteEnum(w, "HealthState", c.HealthState)
			return w.Err()
		},
	}
	ReplicaHealthStateChunkListRecord = chunkListRecord("ReplicaHealthStateChunkList", ReplicaHealthStateChunkRecord)

	PartitionHealthStateChunkRecord = codec.Record[PartitionHealthStateChunk]{
		Name:   "PartitionHealthStateChunk",
		Decode: decodePartitionHealthStateChunk,
		Encode: func(w *codec.ObjectWriter, c PartitionHealthStateChunk) error {
			if err := c.Validate(); err != nil {
				return err
			}
			w.UUID("PartitionId", c.PartitionID)
			codec.WriteEnum(w, "HealthState", c.HealthState)
			codec.WriteOptional(w, "ReplicaHealthStateChunks", c.ReplicaHealthStateChunks,
				codec.ObjectWriterOf(ReplicaHealthStateChunkListRecord))
			return w.Err()
		},
	}
	PartitionHealthStateChunkListRecord = chunkListRecord("PartitionHealthStateChunkList", PartitionHealthStateChunkRecord)

	ServiceHealthStateChunkRecord = codec.Record[ServiceHealthStateChunk]{
		Name:   "ServiceHealthStateChunk",
		Decode: decodeServiceHealthStateChunk,
		Encode: func(w *codec.ObjectWriter, c ServiceHealthStateChunk) error {
			if err := c.Validate(); err != nil {
				return err
			}
			w.String("ServiceName", c.ServiceName)
			codec.WriteEnum(w, "HealthState", c.HealthState)
			codec.WriteOptional(w, "PartitionHealthStateChunks", c.PartitionHealthStateChunks,
				codec.ObjectWriterOf(PartitionHealthStateChunkListRecord))
			return w.Err()
		},
	}
	ServiceHealthStateChunkListRecord = chunkListRecord("ServiceHealthStateChunkList", ServiceHealthStateChunkRecord)
)

func decodeReplicaHealthStateChunk(r *codec.ObjectReader) (ReplicaHealthStateChunk, error) {
	var (
		id    optional.Value[string]
		state optional.Value[HealthState]
		err   error
	)
	for r.Next() {
		switch r.Name() {
		case "ReplicaOrInstanceId":
			id, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
		case "HealthState":
			state, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
		default:
			r.Skip()
		}
		if err != nil {
			return ReplicaHealthStateChunk{}, err
		}
	}
	if err := r.Err(); err != nil {
		return ReplicaHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "ReplicaOrInstanceId", id); err != nil {
		return ReplicaHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "HealthState", state); err != nil {
		return ReplicaHealthStateChunk{}, err
	}
	c := ReplicaHealthStateChunk{ReplicaOrInstanceID: id.OrElse(""), HealthState: state.OrElse("")}
	return c, c.Validate()
}

func decodePartitionHealthStateChunk(r *codec.ObjectReader) (PartitionHealthStateChunk, error) {
	var (
		id       optional.Value[uuid.UUID]
		state    optional.Value[HealthState]
		replicas optional.Value[ReplicaHealthStateChunkList]
		err      error
	)
	for r.Next() {
		switch r.Name() {
		case "PartitionId":
			id, err = codec.ReadOptional(r, (*codec.ObjectReader).UUID)
		case "HealthState":
			state, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
		case "ReplicaHealthStateChunks":
			replicas, err = codec.ReadOptional(r, codec.ObjectOf(ReplicaHealthStateChunkListRecord))
		default:
			r.Skip()
		}
		if err != nil {
			return PartitionHealthStateChunk{}, err
		}
	}
	if err := r.Err(); err != nil {
		return PartitionHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "PartitionId", id); err != nil {
		return PartitionHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "HealthState", state); err != nil {
		return PartitionHealthStateChunk{}, err
	}
	c := PartitionHealthStateChunk{PartitionID: id.OrElse(uuid.Nil), HealthState: state.OrElse(""), ReplicaHealthStateChunks: replicas}
	return c, c.Validate()
}

func decodeServiceHealthStateChunk(r *codec.ObjectReader) (ServiceHealthStateChunk, error) {
	var (
		name       optional.Value[string]
		state      optional.Value[HealthState]
		partitions optional.Value[PartitionHealthStateChunkList]
		err        error
	)
	for r.Next() {
		switch r.Name() {
		case "ServiceName":
			name, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
		case "HealthState":
			state, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
		case "PartitionHealthStateChunks":
			partitions, err = codec.ReadOptional(r, codec.ObjectOf(PartitionHealthStateChunkListRecord))
		default:
			r.Skip()
		}
		if err != nil {
			return ServiceHealthStateChunk{}, err
		}
	}
	if err := r.Err(); err != nil {
		return ServiceHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "ServiceName", name); err != nil {
		return ServiceHealthStateChunk{}, err
	}
	if _, err := codec.Require(r.Record(), "HealthState", state); err != nil {
		return ServiceHealthStateChunk{}, err
	}
	c := ServiceHealthStateChunk{ServiceName: name.OrElse(""), HealthState: state.OrElse(""), PartitionHealthStateChunks: partitions}
	return c, c.Validate()
}
