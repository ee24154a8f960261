package model

import (
	"fmt"
	"time"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/uuid"
)

// EventKind discriminates FabricEvent shapes
type EventKind string

const (
	EventKindNodeUp                             EventKind = "NodeUp"
	EventKindNodeDown                           EventKind = "NodeDown"
	EventKindApplicationCreated                 EventKind = "ApplicationCreated"
	EventKindServiceCreated                     EventKind = "ServiceCreated"
	EventKindStatefulReplicaHealthReportExpired EventKind = "StatefulReplicaHealthReportExpired"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventKindNodeUp, EventKindNodeDown, EventKindApplicationCreated,
		EventKindServiceCreated, EventKindStatefulReplicaHealthReportExpired:
		return true
	}
	return false
}

// FabricEvent is one entry of the cluster event store
type FabricEvent interface {
	Kind() EventKind
	Base() EventBase
	Validate() error
}

// EventBase holds the properties every event carries
type EventBase struct {
	EventInstanceID     uuid.UUID
	TimeStamp           time.Time
	Category            optional.Value[string]
	HasCorrelatedEvents optional.Value[bool]
}

// Base returns the shared properties
func (b EventBase) Base() EventBase {
	return b
}

// NodeUpEvent reports a node joining the cluster
type NodeUpEvent struct {
	EventBase
	NodeName       string
	NodeInstance   int64
	LastNodeDownAt time.Time
}

func (NodeUpEvent) Kind() EventKind { return EventKindNodeUp }

func (NodeUpEvent) Validate() error { return nil }

// NodeDownEvent reports a node leaving the cluster
type NodeDownEvent struct {
	EventBase
	NodeName     string
	NodeInstance int64
	LastNodeUpAt time.Time
}

func (NodeDownEvent) Kind() EventKind { return EventKindNodeDown }

func (NodeDownEvent) Validate() error { return nil }

// ApplicationCreatedEvent reports a new application instance
type ApplicationCreatedEvent struct {
	EventBase
	ApplicationID             string
	ApplicationTypeName       string
	ApplicationTypeVersion    string
	ApplicationDefinitionKind string
}

func (ApplicationCreatedEvent) Kind() EventKind { return EventKindApplicationCreated }

func (ApplicationCreatedEvent) Validate() error { return nil }

// ServiceCreatedEvent reports a new service
type ServiceCreatedEvent struct {
	EventBase
	ServiceID             string
	ServiceName           string
	ServiceTypeName       string
	ApplicationName       string
	ServicePackageVersion string
	IsStateful            bool
	PartitionCount        int32
	TargetReplicaSetSize  int32
	MinReplicaSetSize     int32
	PartitionID           uuid.UUID
}

func (ServiceCreatedEvent) Kind() EventKind { return EventKindServiceCreated }

func (e ServiceCreatedEvent) Validate() error {
	if e.PartitionCount <= 0 {
		return apierror.MalformedValue("ServiceCreatedEvent", "PartitionCount",
			fmt.Errorf("partition count %d must be positive", e.PartitionCount))
	}
	return nil
}

// StatefulReplicaHealthReportExpiredEvent reports that a health report on
// a stateful replica reached its time to live.
type StatefulReplicaHealthReportExpiredEvent struct {
	EventBase
	PartitionID        uuid.UUID
	ReplicaID          int64
	ReplicaInstanceID  int64
	SourceID           string
	Property           string
	HealthState        HealthState
	TimeToLiveMs       int64
	SequenceNumber     int64
	Description        string
	RemoveWhenExpired  bool
	SourceUTCTimestamp time.Time
}

func (StatefulReplicaHealthReportExpiredEvent) Kind() EventKind {
	return EventKindStatefulReplicaHealthReportExpired
}

func (e StatefulReplicaHealthReportExpiredEvent) Validate() error {
	return requireEnum("StatefulReplicaHealthReportExpiredEvent", "HealthState", e.HealthState)
}

// FabricEvents converts FabricEvent values
var FabricEvents = newFabricEvents()

func newFabricEvents() *codec.Union[FabricEvent] {
	u := codec.NewUnion("FabricEvent", "Kind",
		func(e FabricEvent) string { return string(e.Kind()) })

	codec.Register(u, string(EventKindNodeUp), eventRecord("NodeUpEvent",
		map[string]eventFieldType{
			"NodeName":       fieldString,
			"NodeInstance":   fieldInt64,
			"LastNodeDownAt": fieldTime,
		},
		func(b EventBase, f *eventFields) (NodeUpEvent, error) {
			e := NodeUpEvent{EventBase: b}
			var err error
			if e.NodeName, err = requireField(f.strings, "NodeName"); err != nil {
				return e, err
			}
			if e.NodeInstance, err = requireField(f.ints, "NodeInstance"); err != nil {
				return e, err
			}
			e.LastNodeDownAt, err = requireField(f.times, "LastNodeDownAt")
			return e, err
		},
		func(w *codec.ObjectWriter, e NodeUpEvent) {
			w.String("NodeName", e.NodeName)
			w.Int64("NodeInstance", e.NodeInstance)
			w.Time("LastNodeDownAt", e.LastNodeDownAt)
		}))

	codec.Register(u, string(EventKindNodeDown), eventRecord("NodeDownEvent",
		map[string]eventFieldType{
			"NodeName":     fieldString,
			"NodeInstance": fieldInt64,
			"LastNodeUpAt": fieldTime,
		},
		func(b EventBase, f *eventFields) (NodeDownEvent, error) {
			e := NodeDownEvent{EventBase: b}
			var err error
			if e.NodeName, err = requireField(f.strings, "NodeName"); err != nil {
				return e, err
			}
			if e.NodeInstance, err = requireField(f.ints, "NodeInstance"); err != nil {
				return e, err
			}
			e.LastNodeUpAt, err = requireField(f.times, "LastNodeUpAt")
			return e, err
		},
		func(w *codec.ObjectWriter, e NodeDownEvent) {
			w.String("NodeName", e.NodeName)
			w.Int64("NodeInstance", e.NodeInstance)
			w.Time("LastNodeUpAt", e.LastNodeUpAt)
		}))

	codec.Register(u, string(EventKindApplicationCreated), eventRecord("ApplicationCreatedEvent",
		map[string]eventFieldType{
			"ApplicationId":             fieldString,
			"ApplicationTypeName":       fieldString,
			"ApplicationTypeVersion":    fieldString,
			"ApplicationDefinitionKind": fieldString,
		},
		func(b EventBase, f *eventFields) (ApplicationCreatedEvent, error) {
			e := ApplicationCreatedEvent{EventBase: b}
			var err error
			if e.ApplicationID, err = requireField(f.strings, "ApplicationId"); err != nil {
				return e, err
			}
			if e.ApplicationTypeName, err = requireField(f.strings, "ApplicationTypeName"); err != nil {
				return e, err
			}
			if e.ApplicationTypeVersion, err = requireField(f.strings, "ApplicationTypeVersion"); err != nil {
				return e, err
			}
			e.ApplicationDefinitionKind, err = requireField(f.strings, "ApplicationDefinitionKind")
			return e, err
		},
		func(w *codec.ObjectWriter, e ApplicationCreatedEvent) {
			w.String("ApplicationId", e.ApplicationID)
			w.String("ApplicationTypeName", e.ApplicationTypeName)
			w.String("ApplicationTypeVersion", e.ApplicationTypeVersion)
			w.String("ApplicationDefinitionKind", e.ApplicationDefinitionKind)
		}))

	codec.Register(u, string(EventKindServiceCreated), eventRecord("ServiceCreatedEvent",
		map[string]eventFieldType{
			"ServiceId":             fieldString,
			"ServiceName":           fieldString,
			"ServiceTypeName":       fieldString,
			"ApplicationName":       fieldString,
			"ServicePackageVersion": fieldString,
			"IsStateful":            fieldBool,
			"PartitionCount":        fieldInt32,
			"TargetReplicaSetSize":  fieldInt32,
			"MinReplicaSetSize":     fieldInt32,
			"PartitionId":           fieldUUID,
		},
		func(b EventBase, f *eventFields) (ServiceCreatedEvent, error) {
			e := ServiceCreatedEvent{EventBase: b}
			var err error
			for _, s := range []struct {
				name string
				dst  *string
			}{
				{"ServiceId", &e.ServiceID},
				{"ServiceName", &e.ServiceName},
				{"ServiceTypeName", &e.ServiceTypeName},
				{"ApplicationName", &e.ApplicationName},
				{"ServicePackageVersion", &e.ServicePackageVersion},
			} {
				if *s.dst, err = requireField(f.strings, s.name); err != nil {
					return e, err
				}
			}
			if e.IsStateful, err = requireField(f.bools, "IsStateful"); err != nil {
				return e, err
			}
			for _, n := range []struct {
				name string
				dst  *int32
			}{
				{"PartitionCount", &e.PartitionCount},
				{"TargetReplicaSetSize", &e.TargetReplicaSetSize},
				{"MinReplicaSetSize", &e.MinReplicaSetSize},
			} {
				if *n.dst, err = requireField(f.int32s, n.name); err != nil {
					return e, err
				}
			}
			e.PartitionID, err = requireField(f.uuids, "PartitionId")
			return e, err
		},
		func(w *codec.ObjectWriter, e ServiceCreatedEvent) {
			w.String("ServiceId", e.ServiceID)
			w.String("ServiceName", e.ServiceName)
			w.String("ServiceTypeName", e.ServiceTypeName)
			w.String("ApplicationName", e.ApplicationName)
			w.String("ServicePackageVersion", e.ServicePackageVersion)
			w.Bool("IsStateful", e.IsStateful)
			w.Int32("PartitionCount", e.PartitionCount)
			w.Int32("TargetReplicaSetSize", e.TargetReplicaSetSize)
			w.Int32("MinReplicaSetSize", e.MinReplicaSetSize)
			w.UUID("PartitionId", e.PartitionID)
		}))

	codec.Register(u, string(EventKindStatefulReplicaHealthReportExpired), eventRecord("StatefulReplicaHealthReportExpiredEvent",
		map[string]eventFieldType{
			"PartitionId":        fieldUUID,
			"ReplicaId":          fieldInt64,
			"ReplicaInstanceId":  fieldInt64,
			"SourceId":           fieldString,
			"Property":           fieldString,
			"HealthState":        fieldHealthState,
			"TimeToLiveMs":       fieldInt64,
			"SequenceNumber":     fieldInt64,
			"Description":        fieldString,
			"RemoveWhenExpired":  fieldBool,
			"SourceUtcTimestamp": fieldTime,
		},
		func(b EventBase, f *eventFields) (StatefulReplicaHealthReportExpiredEvent, error) {
			e := StatefulReplicaHealthReportExpiredEvent{EventBase: b}
			var err error
			if e.PartitionID, err = requireField(f.uuids, "PartitionId"); err != nil {
				return e, err
			}
			for _, n := range []struct {
				name string
				dst  *int64
			}{
				{"ReplicaId", &e.ReplicaID},
				{"ReplicaInstanceId", &e.ReplicaInstanceID},
				{"TimeToLiveMs", &e.TimeToLiveMs},
				{"SequenceNumber", &e.SequenceNumber},
			} {
				if *n.dst, err = requireField(f.ints, n.name); err != nil {
					return e, err
				}
			}
			for _, s := range []struct {
				name string
				dst  *string
			}{
				{"SourceId", &e.SourceID},
				{"Property", &e.Property},
				{"Description", &e.Description},
			} {
				if *s.dst, err = requireField(f.strings, s.name); err != nil {
					return e, err
				}
			}
			if e.HealthState, err = requireField(f.states, "HealthState"); err != nil {
				return e, err
			}
			if e.RemoveWhenExpired, err = requireField(f.bools, "RemoveWhenExpired"); err != nil {
				return e, err
			}
			e.SourceUTCTimestamp, err = requireField(f.times, "SourceUtcTimestamp")
			return e, err
		},
		func(w *codec.ObjectWriter, e StatefulReplicaHealthReportExpiredEvent) {
			w.UUID("PartitionId", e.PartitionID)
			w.Int64("ReplicaId", e.ReplicaID)
			w.Int64("ReplicaInstanceId", e.ReplicaInstanceID)
			w.String("SourceId", e.SourceID)
			w.String("Property", e.Property)
			codec.WriteEnum(w, "HealthState", e.HealthState)
			w.Int64("TimeToLiveMs", e.TimeToLiveMs)
			w.Int64("SequenceNumber", e.SequenceNumber)
			w.String("Description", e.Description)
			w.Bool("RemoveWhenExpired", e.RemoveWhenExpired)
			w.Time("SourceUtcTimestamp", e.SourceUTCTimestamp)
		}))
	return u
}

// eventFieldType is the JSON type a kind-specific event property is read
// as.
type eventFieldType int

const (
	fieldString eventFieldType = iota
	fieldInt64
	fieldInt32
	fieldBool
	fieldTime
	fieldUUID
	fieldHealthState
)

// eventFields collects the kind-specific properties of one event by name.
// Only names in types are read; the rest are skipped like any other
// unknown property.
type eventFields struct {
	types map[string]eventFieldType

	strings map[string]string
	ints    map[string]int64
	int32s  map[string]int32
	bools   map[string]bool
	times   map[string]time.Time
	uuids   map[string]uuid.UUID
	states  map[string]HealthState
}

func newEventFields(types map[string]eventFieldType) *eventFields {
	return &eventFields{
		types:   types,
		strings: map[string]string{},
		ints:    map[string]int64{},
		int32s:  map[string]int32{},
		bools:   map[string]bool{},
		times:   map[string]time.Time{},
		uuids:   map[string]uuid.UUID{},
		states:  map[string]HealthState{},
	}
}

func (f *eventFields) bind(r *codec.ObjectReader) (bool, error) {
	name := r.Name()
	t, known := f.types[name]
	if !known {
		return false, nil
	}
	if r.IsNull() {
		return true, nil
	}
	switch t {
	case fieldString:
		return true, bindField(f.strings, name, r, (*codec.ObjectReader).String)
	case fieldInt64:
		return true, bindField(f.ints, name, r, (*codec.ObjectReader).Int64)
	case fieldInt32:
		return true, bindField(f.int32s, name, r, (*codec.ObjectReader).Int32)
	case fieldBool:
		return true, bindField(f.bools, name, r, (*codec.ObjectReader).Bool)
	case fieldTime:
		return true, bindField(f.times, name, r, (*codec.ObjectReader).Time)
	case fieldUUID:
		return true, bindField(f.uuids, name, r, (*codec.ObjectReader).UUID)
	default:
		return true, bindField(f.states, name, r, codec.ReadEnum[HealthState])
	}
}

func bindField[T any](m map[string]T, name string, r *codec.ObjectReader, read func(*codec.ObjectReader) (T, error)) error {
	v, err := read(r)
	if err != nil {
		return err
	}
	m[name] = v
	return nil
}

// fieldMissing carries the property name out of requireField; the event
// decoder turns it into a MissingRequiredField for the right record.
type fieldMissing string

func (f fieldMissing) Error() string { return string(f) }

func requireField[T any](m map[string]T, name string) (T, error) {
	v, ok := m[name]
	if !ok {
		return v, fieldMissing(name)
	}
	return v, nil
}

func eventRecord[E FabricEvent](name string, types map[string]eventFieldType, build func(EventBase, *eventFields) (E, error), write func(*codec.ObjectWriter, E)) codec.Record[E] {
	return codec.Record[E]{
		Name: name,
		Decode: func(r *codec.ObjectReader) (E, error) {
			var (
				zero       E
				id         optional.Value[uuid.UUID]
				ts         optional.Value[time.Time]
				category   optional.Value[string]
				correlated optional.Value[bool]
				fields     = newEventFields(types)
			)
			for r.Next() {
				handled, err := fields.bind(r)
				if err != nil {
					return zero, err
				}
				if handled {
					continue
				}
				switch r.Name() {
				case "EventInstanceId":
					id, err = codec.ReadOptional(r, (*codec.ObjectReader).UUID)
				case "TimeStamp":
					ts, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
				case "Category":
					category, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
				case "HasCorrelatedEvents":
					correlated, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool)
				default:
					r.Skip()
				}
				if err != nil {
					return zero, err
				}
			}
			if err := r.Err(); err != nil {
				return zero, err
			}

			base := EventBase{Category: category, HasCorrelatedEvents: correlated}
			var err error
			if base.EventInstanceID, err = codec.Require(name, "EventInstanceId", id); err != nil {
				return zero, err
			}
			if base.TimeStamp, err = codec.Require(name, "TimeStamp", ts); err != nil {
				return zero, err
			}
			e, err := build(base, fields)
			if missing, ok := err.(fieldMissing); ok {
				return zero, apierror.MissingRequiredField(name, string(missing))
			}
			if err != nil {
				return zero, err
			}
			return e, e.Validate()
		},
		Encode: func(w *codec.ObjectWriter, e E) error {
			if err := e.Validate(); err != nil {
				return err
			}
			b := e.Base()
			w.UUID("EventInstanceId", b.EventInstanceID)
			w.Time("TimeStamp", b.TimeStamp)
			codec.WriteOptional(w, "Category", b.Category, (*codec.ObjectWriter).String)
			codec.WriteOptional(w, "HasCorrelatedEvents", b.HasCorrelatedEvents, (*codec.ObjectWriter).Bool)
			write(w, e)
			return w.Err()
		},
	}
}

func UnmarshalFabricEvent(data []byte) (FabricEvent, error) {
	return codec.Unmarshal(data, FabricEvents.Record())
}

func MarshalFabricEvent(e FabricEvent) ([]byte, error) {
	return codec.Marshal(e, FabricEvents.Record())
}

// UnmarshalFabricEvents decodes an array of events of mixed kinds, the
// shape returned by event store queries.
func UnmarshalFabricEvents(data []byte) ([]FabricEvent, error) {
	return codec.UnmarshalArray(data, FabricEvents.Record())
}
