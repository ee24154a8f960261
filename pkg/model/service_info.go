package model

import (
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
)

// ServiceStatus is the lifecycle status of a service
type ServiceStatus string

const (
	ServiceStatusUnknown   ServiceStatus = "Unknown"
	ServiceStatusActive    ServiceStatus = "Active"
	ServiceStatusUpgrading ServiceStatus = "Upgrading"
	ServiceStatusDeleting  ServiceStatus = "Deleting"
	ServiceStatusCreating  ServiceStatus = "Creating"
	ServiceStatusFailed    ServiceStatus = "Failed"
)

func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusUnknown, ServiceStatusActive, ServiceStatusUpgrading,
		ServiceStatusDeleting, ServiceStatusCreating, ServiceStatusFailed:
		return true
	}
	return false
}

// ServiceInfo is the server's view of a running service. The concrete
// types are StatelessServiceInfo and StatefulServiceInfo.
type ServiceInfo interface {
	ServiceKind() ServiceKind
	Info() ServiceInfoCommon
	Validate() error
}

// ServiceInfoCommon holds the properties every service kind reports
type ServiceInfoCommon struct {
	ID              string
	Name            string
	TypeName        string
	ManifestVersion string
	HealthState     HealthState
	ServiceStatus   ServiceStatus
	IsServiceGroup  optional.Value[bool]
}

// Info returns the shared properties
func (c ServiceInfoCommon) Info() ServiceInfoCommon {
	return c
}

func (c ServiceInfoCommon) validate(record string) error {
	if err := requireEnum(record, "HealthState", c.HealthState); err != nil {
		return err
	}
	return requireEnum(record, "ServiceStatus", c.ServiceStatus)
}

type StatelessServiceInfo struct {
	ServiceInfoCommon
}

func (StatelessServiceInfo) ServiceKind() ServiceKind { return ServiceKindStateless }

func (i StatelessServiceInfo) Validate() error {
	return i.ServiceInfoCommon.validate("StatelessServiceInfo")
}

type StatefulServiceInfo struct {
	ServiceInfoCommon
	HasPersistedState bool
}

func (StatefulServiceInfo) ServiceKind() ServiceKind { return ServiceKindStateful }

func (i StatefulServiceInfo) Validate() error {
	return i.ServiceInfoCommon.validate("StatefulServiceInfo")
}

// ServiceInfos converts ServiceInfo values
var ServiceInfos = newServiceInfos()

func newServiceInfos() *codec.Union[ServiceInfo] {
	u := codec.NewUnion("ServiceInfo", "ServiceKind",
		func(i ServiceInfo) string { return string(i.ServiceKind()) })

	codec.Register(u, string(ServiceKindStateless), codec.Record[StatelessServiceInfo]{
		Name: "StatelessServiceInfo",
		Decode: func(r *codec.ObjectReader) (StatelessServiceInfo, error) {
			var s serviceInfoSlots
			for r.Next() {
				handled, err := s.bind(r)
				if err != nil {
					return StatelessServiceInfo{}, err
				}
				if !handled {
					r.Skip()
				}
			}
			if err := r.Err(); err != nil {
				return StatelessServiceInfo{}, err
			}
			common, err := s.build(r.Record())
			if err != nil {
				return StatelessServiceInfo{}, err
			}
			i := StatelessServiceInfo{ServiceInfoCommon: common}
			return i, i.Validate()
		},
		Encode: func(w *codec.ObjectWriter, i StatelessServiceInfo) error {
			if err := i.Validate(); err != nil {
				return err
			}
			writeServiceInfoCommon(w, i.ServiceInfoCommon)
			return w.Err()
		},
	})

	codec.Register(u, string(ServiceKindStateful), codec.Record[StatefulServiceInfo]{
		Name: "StatefulServiceInfo",
		Decode: func(r *codec.ObjectReader) (StatefulServiceInfo, error) {
			var (
				s         serviceInfoSlots
				persisted optional.Value[bool]
			)
			for r.Next() {
				handled, err := s.bind(r)
				if err != nil {
					return StatefulServiceInfo{}, err
				}
				if handled {
					continue
				}
				if r.Name() == "HasPersistedState" {
					if persisted, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool); err != nil {
						return StatefulServiceInfo{}, err
					}
					continue
				}
				r.Skip()
			}
			if err := r.Err(); err != nil {
				return StatefulServiceInfo{}, err
			}
			common, err := s.build(r.Record())
			if err != nil {
				return StatefulServiceInfo{}, err
			}
			i := StatefulServiceInfo{ServiceInfoCommon: common}
			if i.HasPersistedState, err = codec.Require(r.Record(), "HasPersistedState", persisted); err != nil {
				return StatefulServiceInfo{}, err
			}
			return i, i.Validate()
		},
		Encode: func(w *codec.ObjectWriter, i StatefulServiceInfo) error {
			if err := i.Validate(); err != nil {
				return err
			}
			writeServiceInfoCommon(w, i.ServiceInfoCommon)
			w.Bool("HasPersistedState", i.HasPersistedState)
			return w.Err()
		},
	})
	return u
}

type serviceInfoSlots struct {
	id, name, typeName, manifestVersion optional.Value[string]
	healthState                         optional.Value[HealthState]
	serviceStatus                       optional.Value[ServiceStatus]
	isServiceGroup                      optional.Value[bool]
}

func (s *serviceInfoSlots) bind(r *codec.ObjectReader) (bool, error) {
	var err error
	switch r.Name() {
	case "Id":
		s.id, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "Name":
		s.name, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "TypeName":
		s.typeName, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "ManifestVersion":
		s.manifestVersion, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "HealthState":
		s.healthState, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
	case "ServiceStatus":
		s.serviceStatus, err = codec.ReadOptional(r, codec.ReadEnum[ServiceStatus])
	case "IsServiceGroup":
		s.isServiceGroup, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool)
	default:
		return false, nil
	}
	return true, err
}

func (s *serviceInfoSlots) build(record string) (ServiceInfoCommon, error) {
	var (
		c   ServiceInfoCommon
		err error
	)
	if c.ID, err = codec.Require(record, "Id", s.id); err != nil {
		return c, err
	}
	if c.Name, err = codec.Require(record, "Name", s.name); err != nil {
		return c, err
	}
	if c.TypeName, err = codec.Require(record, "TypeName", s.typeName); err != nil {
		return c, err
	}
	if c.ManifestVersion, err = codec.Require(record, "ManifestVersion", s.manifestVersion); err != nil {
		return c, err
	}
	if c.HealthState, err = codec.Require(record, "HealthState", s.healthState); err != nil {
		return c, err
	}
	if c.ServiceStatus, err = codec.Require(record, "ServiceStatus", s.serviceStatus); err != nil {
		return c, err
	}
	c.IsServiceGroup = s.isServiceGroup
	return c, nil
}

func writeServiceInfoCommon(w *codec.ObjectWriter, c ServiceInfoCommon) {
	w.String("Id", c.ID)
	w.String("Name", c.Name)
	w.String("TypeName", c.TypeName)
	w.String("ManifestVersion", c.ManifestVersion)
	codec.WriteEnum(w, "HealthState", c.HealthState)
	codec.WriteEnum(w, "ServiceStatus", c.ServiceStatus)
	codec.WriteOptional(w, "IsServiceGroup", c.IsServiceGroup, (*codec.ObjectWriter).Bool)
}

func UnmarshalServiceInfo(data []byte) (ServiceInfo, error) {
	return codec.Unmarshal(data, ServiceInfos.Record())
}

func MarshalServiceInfo(i ServiceInfo) ([]byte, error) {
	return codec.Marshal(i, ServiceInfos.Record())
}
