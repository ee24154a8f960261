package model

import (
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
)

// ReplicaRole is the role of a stateful replica in its replica set
type ReplicaRole string

const (
	ReplicaRoleUnknown          ReplicaRole = "Unknown"
	ReplicaRoleNone             ReplicaRole = "None"
	ReplicaRolePrimary          ReplicaRole = "Primary"
	ReplicaRoleIdleSecondary    ReplicaRole = "IdleSecondary"
	ReplicaRoleActiveSecondary  ReplicaRole = "ActiveSecondary"
	ReplicaRoleIdleAuxiliary    ReplicaRole = "IdleAuxiliary"
	ReplicaRoleActiveAuxiliary  ReplicaRole = "ActiveAuxiliary"
	ReplicaRolePrimaryAuxiliary ReplicaRole = "PrimaryAuxiliary"
)

func (r ReplicaRole) IsValid() bool {
	switch r {
	case ReplicaRoleUnknown, ReplicaRoleNone, ReplicaRolePrimary, ReplicaRoleIdleSecondary,
		ReplicaRoleActiveSecondary, ReplicaRoleIdleAuxiliary, ReplicaRoleActiveAuxiliary,
		ReplicaRolePrimaryAuxiliary:
		return true
	}
	return false
}

// ReplicaStatus is the lifecycle status of a replica or instance
type ReplicaStatus string

const (
	ReplicaStatusInvalid ReplicaStatus = "Invalid"
	ReplicaStatusInBuild ReplicaStatus = "InBuild"
	ReplicaStatusStandby ReplicaStatus = "Standby"
	ReplicaStatusReady   ReplicaStatus = "Ready"
	ReplicaStatusDown    ReplicaStatus = "Down"
	ReplicaStatusDropped ReplicaStatus = "Dropped"
)

func (s ReplicaStatus) IsValid() bool {
	switch s {
	case ReplicaStatusInvalid, ReplicaStatusInBuild, ReplicaStatusStandby,
		ReplicaStatusReady, ReplicaStatusDown, ReplicaStatusDropped:
		return true
	}
	return false
}

// ReplicaInfo describes one replica of a stateful service or one instance
// of a stateless service.
type ReplicaInfo interface {
	ServiceKind() ServiceKind
	Replica() ReplicaInfoCommon
	Validate() error
}

// ReplicaInfoCommon holds the properties replicas and instances share
type ReplicaInfoCommon struct {
	ReplicaStatus ReplicaStatus
	HealthState   HealthState
	NodeName      string
	Address       optional.Value[string]
	// LastInBuildDurationInSeconds travels as a decimal string
	LastInBuildDurationInSeconds optional.Value[int64]
}

// Replica returns the shared properties
func (c ReplicaInfoCommon) Replica() ReplicaInfoCommon {
	return c
}

func (c ReplicaInfoCommon) validate(record string) error {
	if err := requireEnum(record, "ReplicaStatus", c.ReplicaStatus); err != nil {
		return err
	}
	if err := requireEnum(record, "HealthState", c.HealthState); err != nil {
		return err
	}
	if d, ok := c.LastInBuildDurationInSeconds.Get(); ok {
		return requireNonNegative(record, "LastInBuildDurationInSeconds", d)
	}
	return nil
}

// StatefulServiceReplicaInfo is one replica of a stateful partition
type StatefulServiceReplicaInfo struct {
	ReplicaInfoCommon
	ReplicaID   string
	ReplicaRole ReplicaRole
}

func (StatefulServiceReplicaInfo) ServiceKind() ServiceKind { return ServiceKindStateful }

func (i StatefulServiceReplicaInfo) Validate() error {
	const record = "StatefulServiceReplicaInfo"
	if err := i.ReplicaInfoCommon.validate(record); err != nil {
		return err
	}
	return requireEnum(record, "ReplicaRole", i.ReplicaRole)
}

// StatelessServiceInstanceInfo is one instance of a stateless partition
type StatelessServiceInstanceInfo struct {
	ReplicaInfoCommon
	InstanceID string
}

func (StatelessServiceInstanceInfo) ServiceKind() ServiceKind { return ServiceKindStateless }

func (i StatelessServiceInstanceInfo) Validate() error {
	const record = "StatelessServiceInstanceInfo"
	return i.ReplicaInfoCommon.validate(record)
}

// ReplicaInfos converts ReplicaInfo values
var ReplicaInfos = newReplicaInfos()

func newReplicaInfos() *codec.Union[ReplicaInfo] {
	u := codec.NewUnion("ReplicaInfo", "ServiceKind",
		func(i ReplicaInfo) string { return string(i.ServiceKind()) })

	codec.Register(u, string(ServiceKindStateful), codec.Record[StatefulServiceReplicaInfo]{
		Name: "StatefulServiceReplicaInfo",
		Decode: func(r *codec.ObjectReader) (StatefulServiceReplicaInfo, error) {
			var (
				s    replicaInfoSlots
				id   optional.Value[string]
				role optional.Value[ReplicaRole]
			)
			for r.Next() {
				handled, err := s.bind(r)
				if err != nil {
					return StatefulServiceReplicaInfo{}, err
				}
				if handled {
					continue
				}
				switch r.Name() {
				case "ReplicaId":
					id, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
				case "ReplicaRole":
					role, err = codec.ReadOptional(r, codec.ReadEnum[ReplicaRole])
				default:
					r.Skip()
				}
				if err != nil {
					return StatefulServiceReplicaInfo{}, err
				}
			}
			if err := r.Err(); err != nil {
				return StatefulServiceReplicaInfo{}, err
			}

			common, err := s.build(r.Record())
			if err != nil {
				return StatefulServiceReplicaInfo{}, err
			}
			i := StatefulServiceReplicaInfo{ReplicaInfoCommon: common}
			if i.ReplicaID, err = codec.Require(r.Record(), "ReplicaId", id); err != nil {
				return StatefulServiceReplicaInfo{}, err
			}
			if i.ReplicaRole, err = codec.Require(r.Record(), "ReplicaRole", role); err != nil {
				return StatefulServiceReplicaInfo{}, err
			}
			return i, i.Validate()
		},
		Encode: func(w *codec.ObjectWriter, i StatefulServiceReplicaInfo) error {
			if err := i.Validate(); err != nil {
				return err
			}
			writeReplicaInfoCommon(w, i.ReplicaInfoCommon)
			codec.WriteEnum(w, "ReplicaRole", i.ReplicaRole)
			w.String("ReplicaId", i.ReplicaID)
			return w.Err()
		},
	})

	codec.Register(u, string(ServiceKindStateless), codec.Record[StatelessServiceInstanceInfo]{
		Name: "StatelessServiceInstanceInfo",
		Decode: func(r *codec.ObjectReader) (StatelessServiceInstanceInfo, error) {
			var (
				s  replicaInfoSlots
				id optional.Value[string]
			)
			for r.Next() {
				handled, err := s.bind(r)
				if err != nil {
					return StatelessServiceInstanceInfo{}, err
				}
				if handled {
					continue
				}
				if r.Name() == "InstanceId" {
					if id, err = codec.ReadOptional(r, (*codec.ObjectReader).String); err != nil {
						return StatelessServiceInstanceInfo{}, err
					}
					continue
				}
				r.Skip()
			}
			if err := r.Err(); err != nil {
				return StatelessServiceInstanceInfo{}, err
			}

			common, err := s.build(r.Record())
			if err != nil {
				return StatelessServiceInstanceInfo{}, err
			}
			i := StatelessServiceInstanceInfo{ReplicaInfoCommon: common}
			if i.InstanceID, err = codec.Require(r.Record(), "InstanceId", id); err != nil {
				return StatelessServiceInstanceInfo{}, err
			}
			return i, i.Validate()
		},
		Encode: func(w *codec.ObjectWriter, i StatelessServiceInstanceInfo) error {
			if err := i.Validate(); err != nil {
				return err
			}
			writeReplicaInfoCommon(w, i.ReplicaInfoCommon)
			w.String("InstanceId", i.InstanceID)
			return w.Err()
		},
	})
	return u
}

type replicaInfoSlots struct {
	replicaStatus optional.Value[ReplicaStatus]
	healthState   optional.Value[HealthState]
	nodeName      optional.Value[string]
	address       optional.Value[string]
	lastInBuild   optional.Value[int64]
}

func (s *replicaInfoSlots) bind(r *codec.ObjectReader) (bool, error) {
	var err error
	switch r.Name() {
	case "ReplicaStatus":
		s.replicaStatus, err = codec.ReadOptional(r, codec.ReadEnum[ReplicaStatus])
	case "HealthState":
		s.healthState, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
	case "NodeName":
		s.nodeName, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "Address":
		s.address, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "LastInBuildDurationInSeconds":
		s.lastInBuild, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64String)
	default:
		return false, nil
	}
	return true, err
}

func (s *replicaInfoSlots) build(record string) (ReplicaInfoCommon, error) {
	var (
		c   ReplicaInfoCommon
		err error
	)
	if c.ReplicaStatus, err = codec.Require(record, "ReplicaStatus", s.replicaStatus); err != nil {
		return c, err
	}
	if c.HealthState, err = codec.Require(record, "HealthState", s.healthState); err != nil {
		return c, err
	}
	if c.NodeName, err = codec.Require(record, "NodeName", s.nodeName); err != nil {
		return c, err
	}
	c.Address = s.address
	c.LastInBuildDurationInSeconds = s.lastInBuild
	return c, nil
}

func writeReplicaInfoCommon(w *codec.ObjectWriter, c ReplicaInfoCommon) {
	codec.WriteEnum(w, "ReplicaStatus", c.ReplicaStatus)
	codec.WriteEnum(w, "HealthState", c.HealthState)
	w.String("NodeName", c.NodeName)
	codec.WriteOptional(w, "Address", c.Address, (*codec.ObjectWriter).String)
	codec.WriteOptional(w, "LastInBuildDurationInSeconds", c.LastInBuildDurationInSeconds, (*codec.ObjectWriter).Int64String)
}

func UnmarshalReplicaInfo(data []byte) (ReplicaInfo, error) {
	return codec.Unmarshal(data, ReplicaInfos.Record())
}

func MarshalReplicaInfo(i ReplicaInfo) ([]byte, error) {
	return codec.Marshal(i, ReplicaInfos.Record())
}
