/*
Package model defines the typed records of the cluster management REST API
and the converters that move them to and from JSON.

Every record is a plain Go struct. Required properties use plain field
types; optional properties use optional.Value so that an absent value is
never confused with a zero one. Records are values: constructors validate
their arguments and the WithXxx methods return modified copies.

# Record Families

Health reports:
  - HealthState: Invalid, Ok, Warning, Error, Unknown
  - HealthStateFilter: integer bit set selecting health states
  - HealthInformation: a report sent by a watchdog
  - HealthEvent: a report as stored by the cluster

Health chunk queries:
  - ApplicationHealthStateFilter, ServiceHealthStateFilter,
    PartitionHealthStateFilter, ReplicaHealthStateFilter: the nested
    query description
  - ServiceHealthStateChunkList, PartitionHealthStateChunkList,
    ReplicaHealthStateChunkList: the nested result

Services and replicas, all discriminated by ServiceKind:
  - ServiceDescription: StatelessServiceDescription or
    StatefulServiceDescription
  - PartitionSchemeDescription: Singleton, UniformInt64Range or Named,
    discriminated by PartitionScheme
  - ServiceInfo: StatelessServiceInfo or StatefulServiceInfo
  - ReplicaInfo: StatefulServiceReplicaInfo or
    StatelessServiceInstanceInfo

Events, discriminated by Kind:
  - FabricEvent: NodeUp, NodeDown, ApplicationCreated, ServiceCreated and
    StatefulReplicaHealthReportExpired

# Converters

Plain records expose a codec.Record value named after the type, such as
HealthInformationRecord, and implement json.Marshaler and
json.Unmarshaler through it. Unions expose a *codec.Union (ServiceDescriptions,
ReplicaInfos, FabricEvents, ...) plus UnmarshalXxx and MarshalXxx helpers:

	desc, err := model.UnmarshalServiceDescription(body)
	if err != nil {
		return err
	}
	switch d := desc.(type) {
	case model.StatefulServiceDescription:
		fmt.Println(d.TargetReplicaSetSize)
	case model.StatelessServiceDescription:
		fmt.Println(d.InstanceCount)
	}

Decoding validates the result the same way the constructors do, so a
decoded record is always a valid one. Encoding validates first and writes
nothing on failure.

# Health Report Descriptions

Descriptions longer than MaxDescriptionLength characters are cut to fit
and end with TruncationMarker. This happens in WithDescription, on decode
and on encode, so an over-long description never reaches the wire.

# Registry

Types lists every record type under a stable kebab-case name. fabricctl
uses it to convert payloads chosen on the command line, and the storage
package uses it to validate archived payloads:

	t, err := model.Types.Lookup("service-description")
	canonical, err := t.Canonicalize(payload, true)
*/
package model
