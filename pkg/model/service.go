package model

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
)

// ServiceKind discriminates service and replica shapes
type ServiceKind string

const (
	ServiceKindStateless ServiceKind = "Stateless"
	ServiceKindStateful  ServiceKind = "Stateful"
)

func (k ServiceKind) IsValid() bool {
	return k == ServiceKindStateless || k == ServiceKindStateful
}

// ServicePackageActivationMode controls whether replicas of a service on
// one node share a host process.
type ServicePackageActivationMode string

const (
	ServicePackageActivationModeSharedProcess    ServicePackageActivationMode = "SharedProcess"
	ServicePackageActivationModeExclusiveProcess ServicePackageActivationMode = "ExclusiveProcess"
)

func (m ServicePackageActivationMode) IsValid() bool {
	return m == ServicePackageActivationModeSharedProcess || m == ServicePackageActivationModeExclusiveProcess
}

// ServiceDescription is the request body for creating a service. The
// concrete types are StatelessServiceDescription and
// StatefulServiceDescription.
type ServiceDescription interface {
	ServiceKind() ServiceKind
	Common() ServiceDescriptionCommon
	Validate() error
}

// ServiceDescriptionCommon holds the properties every service kind shares
type ServiceDescriptionCommon struct {
	ApplicationName              optional.Value[string]
	ServiceName                  string
	ServiceTypeName              string
	InitializationData           optional.Value[[]byte]
	PartitionDescription         PartitionSchemeDescription
	PlacementConstraints         optional.Value[string]
	ServicePackageActivationMode optional.Value[ServicePackageActivationMode]
}

// Common returns the shared properties
func (c ServiceDescriptionCommon) Common() ServiceDescriptionCommon {
	return c
}

func (c ServiceDescriptionCommon) validate(record string) error {
	if c.PartitionDescription == nil {
		return apierror.MissingRequiredField(record, "PartitionDescription")
	}
	if err := c.PartitionDescription.Validate(); err != nil {
		return err
	}
	mode, set := c.ServicePackageActivationMode.Get()
	return optionalEnum(record, "ServicePackageActivationMode", mode, set)
}

// StatelessServiceDescription describes a service whose instances keep no
// replicated state.
type StatelessServiceDescription struct {
	ServiceDescriptionCommon
	InstanceCount    int32
	MinInstanceCount optional.Value[int32]
}

// NewStatelessServiceDescription builds a description from its required
// fields. An InstanceCount of -1 places one instance on every node.
func NewStatelessServiceDescription(serviceName, serviceTypeName string, partition PartitionSchemeDescription, instanceCount int32) (StatelessServiceDescription, error) {
	d := StatelessServiceDescription{
		ServiceDescriptionCommon: ServiceDescriptionCommon{
			ServiceName:          serviceName,
			ServiceTypeName:      serviceTypeName,
			PartitionDescription: partition,
		},
		InstanceCount: instanceCount,
	}
	if err := requireServiceNames("StatelessServiceDescription", serviceName, serviceTypeName); err != nil {
		return d, err
	}
	return d, d.Validate()
}

func (StatelessServiceDescription) ServiceKind() ServiceKind { return ServiceKindStateless }

func (d StatelessServiceDescription) Validate() error {
	const record = "StatelessServiceDescription"
	if err := d.ServiceDescriptionCommon.validate(record); err != nil {
		return err
	}
	if d.InstanceCount < -1 || d.InstanceCount == 0 {
		return apierror.MalformedValue(record, "InstanceCount", fmt.Errorf("instance count %d", d.InstanceCount))
	}
	return nil
}

func (d StatelessServiceDescription) WithApplicationName(name string) StatelessServiceDescription {
	d.ApplicationName = optional.Of(name)
	return d
}

func (d StatelessServiceDescription) WithMinInstanceCount(n int32) StatelessServiceDescription {
	d.MinInstanceCount = optional.Of(n)
	return d
}

func (d StatelessServiceDescription) WithPlacementConstraints(expr string) StatelessServiceDescription {
	d.PlacementConstraints = optional.Of(expr)
	return d
}

// StatefulServiceDescription describes a service with replicated state
type StatefulServiceDescription struct {
	ServiceDescriptionCommon
	TargetReplicaSetSize              int32
	MinReplicaSetSize                 int32
	HasPersistedState                 bool
	ReplicaRestartWaitDurationSeconds optional.Value[int64]
	QuorumLossWaitDurationSeconds     optional.Value[int64]
}

func NewStatefulServiceDescription(serviceName, serviceTypeName string, partition PartitionSchemeDescription, targetSize, minSize int32, persisted bool) (StatefulServiceDescription, error) {
	d := StatefulServiceDescription{
		ServiceDescriptionCommon: ServiceDescriptionCommon{
			ServiceName:          serviceName,
			ServiceTypeName:      serviceTypeName,
			PartitionDescription: partition,
		},
		TargetReplicaSetSize: targetSize,
		MinReplicaSetSize:    minSize,
		HasPersistedState:    persisted,
	}
	if err := requireServiceNames("StatefulServiceDescription", serviceName, serviceTypeName); err != nil {
		return d, err
	}
	return d, d.Validate()
}

func requireServiceNames(record, serviceName, serviceTypeName string) error {
	if err := requireString(record, "ServiceName", serviceName); err != nil {
		return err
	}
	return requireString(record, "ServiceTypeName", serviceTypeName)
}

func (StatefulServiceDescription) ServiceKind() ServiceKind { return ServiceKindStateful }

func (d StatefulServiceDescription) Validate() error {
	const record = "StatefulServiceDescription"
	if err := d.ServiceDescriptionCommon.validate(record); err != nil {
		return err
	}
	if d.TargetReplicaSetSize <= 0 {
		return apierror.MalformedValue(record, "TargetReplicaSetSize", fmt.Errorf("replica set size %d must be positive", d.TargetReplicaSetSize))
	}
	if d.MinReplicaSetSize <= 0 || d.MinReplicaSetSize > d.TargetReplicaSetSize {
		return apierror.MalformedValue(record, "MinReplicaSetSize",
			fmt.Errorf("min replica set size %d outside 1..%d", d.MinReplicaSetSize, d.TargetReplicaSetSize))
	}
	return nil
}

func (d StatefulServiceDescription) WithApplicationName(name string) StatefulServiceDescription {
	d.ApplicationName = optional.Of(name)
	return d
}

func (d StatefulServiceDescription) WithReplicaRestartWaitDuration(seconds int64) StatefulServiceDescription {
	d.ReplicaRestartWaitDurationSeconds = optional.Of(seconds)
	return d
}

func (d StatefulServiceDescription) WithQuorumLossWaitDuration(seconds int64) StatefulServiceDescription {
	d.QuorumLossWaitDurationSeconds = optional.Of(seconds)
	return d
}

// ServiceDescriptions converts ServiceDescription values
var ServiceDescriptions = newServiceDescriptions()

func newServiceDescriptions() *codec.Union[ServiceDescription] {
	u := codec.NewUnion("ServiceDescription", "ServiceKind",
		func(d ServiceDescription) string { return string(d.ServiceKind()) })

	codec.Register(u, string(ServiceKindStateless), codec.Record[StatelessServiceDescription]{
		Name:   "StatelessServiceDescription",
		Decode: decodeStatelessServiceDescription,
		Encode: func(w *codec.ObjectWriter, d StatelessServiceDescription) error {
			if err := d.Validate(); err != nil {
				return err
			}
			writeServiceDescriptionCommon(w, d.ServiceDescriptionCommon)
			w.Int32("InstanceCount", d.InstanceCount)
			codec.WriteOptional(w, "MinInstanceCount", d.MinInstanceCount, (*codec.ObjectWriter).Int32)
			return w.Err()
		},
	})

	codec.Register(u, string(ServiceKindStateful), codec.Record[StatefulServiceDescription]{
		Name:   "StatefulServiceDescription",
		Decode: decodeStatefulServiceDescription,
		Encode: func(w *codec.ObjectWriter, d StatefulServiceDescription) error {
			if err := d.Validate(); err != nil {
				return err
			}
			writeServiceDescriptionCommon(w, d.ServiceDescriptionCommon)
			w.Int32("TargetReplicaSetSize", d.TargetReplicaSetSize)
			w.Int32("MinReplicaSetSize", d.MinReplicaSetSize)
			w.Bool("HasPersistedState", d.HasPersistedState)
			codec.WriteOptional(w, "ReplicaRestartWaitDurationSeconds", d.ReplicaRestartWaitDurationSeconds, (*codec.ObjectWriter).Int64)
			codec.WriteOptional(w, "QuorumLossWaitDurationSeconds", d.QuorumLossWaitDurationSeconds, (*codec.ObjectWriter).Int64)
			return w.Err()
		},
	})
	return u
}

type serviceDescriptionSlots struct {
	applicationName      optional.Value[string]
	serviceName          optional.Value[string]
	serviceTypeName      optional.Value[string]
	initializationData   optional.Value[[]byte]
	partitionDescription optional.Value[PartitionSchemeDescription]
	placementConstraints optional.Value[string]
	activationMode       optional.Value[ServicePackageActivationMode]
}

func readBytes(r *codec.ObjectReader) ([]byte, error) {
	b, err := codec.ReadArray(r, (*codec.ObjectReader).Uint8)
	if b == nil && err == nil {
		b = []byte{}
	}
	return b, err
}

func (s *serviceDescriptionSlots) bind(r *codec.ObjectReader) (bool, error) {
	var err error
	switch r.Name() {
	case "ApplicationName":
		s.applicationName, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "ServiceName":
		s.serviceName, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "ServiceTypeName":
		s.serviceTypeName, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "InitializationData":
		s.initializationData, err = codec.ReadOptional(r, readBytes)
	case "PartitionDescription":
		s.partitionDescription, err = codec.ReadOptional(r, codec.ObjectOf(PartitionSchemes.Record()))
	case "PlacementConstraints":
		s.placementConstraints, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "ServicePackageActivationMode":
		s.activationMode, err = codec.ReadOptional(r, codec.ReadEnum[ServicePackageActivationMode])
	default:
		return false, nil
	}
	return true, err
}

func (s *serviceDescriptionSlots) build(record string) (ServiceDescriptionCommon, error) {
	var (
		c   ServiceDescriptionCommon
		err error
	)
	if c.ServiceName, err = codec.Require(record, "ServiceName", s.serviceName); err != nil {
		return c, err
	}
	if c.ServiceTypeName, err = codec.Require(record, "ServiceTypeName", s.serviceTypeName); err != nil {
		return c, err
	}
	if c.PartitionDescription, err = codec.Require(record, "PartitionDescription", s.partitionDescription); err != nil {
		return c, err
	}
	c.ApplicationName = s.applicationName
	c.InitializationData = s.initializationData
	c.PlacementConstraints = s.placementConstraints
	c.ServicePackageActivationMode = s.activationMode
	return c, nil
}

func writeServiceDescriptionCommon(w *codec.ObjectWriter, c ServiceDescriptionCommon) {
	codec.WriteOptional(w, "ApplicationName", c.ApplicationName, (*codec.ObjectWriter).String)
	w.String("ServiceName", c.ServiceName)
	w.String("ServiceTypeName", c.ServiceTypeName)
	if data, ok := c.InitializationData.Get(); ok {
		codec.WriteArray(w, "InitializationData", data, codec.ByteElement)
	}
	codec.WriteObject(w, "PartitionDescription", c.PartitionDescription, PartitionSchemes.Record())
	codec.WriteOptional(w, "PlacementConstraints", c.PlacementConstraints, (*codec.ObjectWriter).String)
	codec.WriteOptional(w, "ServicePackageActivationMode", c.ServicePackageActivationMode, codec.WriteEnum[ServicePackageActivationMode])
}

func decodeStatelessServiceDescription(r *codec.ObjectReader) (StatelessServiceDescription, error) {
	var (
		s        serviceDescriptionSlots
		count    optional.Value[int32]
		minCount optional.Value[int32]
	)
	for r.Next() {
		handled, err := s.bind(r)
		if err != nil {
			return StatelessServiceDescription{}, err
		}
		if handled {
			continue
		}
		switch r.Name() {
		case "InstanceCount":
			count, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		case "MinInstanceCount":
			minCount, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		default:
			r.Skip()
		}
		if err != nil {
			return StatelessServiceDescription{}, err
		}
	}
	if err := r.Err(); err != nil {
		return StatelessServiceDescription{}, err
	}

	common, err := s.build(r.Record())
	if err != nil {
		return StatelessServiceDescription{}, err
	}
	d := StatelessServiceDescription{ServiceDescriptionCommon: common, MinInstanceCount: minCount}
	if d.InstanceCount, err = codec.Require(r.Record(), "InstanceCount", count); err != nil {
		return StatelessServiceDescription{}, err
	}
	return d, d.Validate()
}

func decodeStatefulServiceDescription(r *codec.ObjectReader) (StatefulServiceDescription, error) {
	var (
		s                       serviceDescriptionSlots
		targetSize, minSize     optional.Value[int32]
		persisted               optional.Value[bool]
		restartWait, quorumWait optional.Value[int64]
	)
	for r.Next() {
		handled, err := s.bind(r)
		if err != nil {
			return StatefulServiceDescription{}, err
		}
		if handled {
			continue
		}
		switch r.Name() {
		case "TargetReplicaSetSize":
			targetSize, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		case "MinReplicaSetSize":
			minSize, err = codec.ReadOptional(r, (*codec.ObjectReader).Int32)
		case "HasPersistedState":
			persisted, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool)
		case "ReplicaRestartWaitDurationSeconds":
			restartWait, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64)
		case "QuorumLossWaitDurationSeconds":
			quorumWait, err = codec.ReadOptional(r, (*codec.ObjectReader).Int64)
		default:
			r.Skip()
		}
		if err != nil {
			return StatefulServiceDescription{}, err
		}
	}
	if err := r.Err(); err != nil {
		return StatefulServiceDescription{}, err
	}

	common, err := s.build(r.Record())
	if err != nil {
		return StatefulServiceDescription{}, err
	}
	d := StatefulServiceDescription{
		ServiceDescriptionCommon:          common,
		ReplicaRestartWaitDurationSeconds: restartWait,
		QuorumLossWaitDurationSeconds:     quorumWait,
	}
	if d.TargetReplicaSetSize, err = codec.Require(r.Record(), "TargetReplicaSetSize", targetSize); err != nil {
		return StatefulServiceDescription{}, err
	}
	if d.MinReplicaSetSize, err = codec.Require(r.Record(), "MinReplicaSetSize", minSize); err != nil {
		return StatefulServiceDescription{}, err
	}
	if d.HasPersistedState, err = codec.Require(r.Record(), "HasPersistedState", persisted); err != nil {
		return StatefulServiceDescription{}, err
	}
	return d, d.Validate()
}

// UnmarshalServiceDescription decodes either service kind, selected by
// the ServiceKind property.
func UnmarshalServiceDescription(data []byte) (ServiceDescription, error) {
	return codec.Unmarshal(data, ServiceDescriptions.Record())
}

// MarshalServiceDescription encodes d with ServiceKind first
func MarshalServiceDescription(d ServiceDescription) ([]byte, error) {
	return codec.Marshal(d, ServiceDescriptions.Record())
}
