package model

import (
	"testing"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalServiceDescriptionDispatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ServiceKind
	}{
		{
			name: "stateful",
			input: `{"ServiceKind":"Stateful","ServiceName":"fabric:/app/svc","ServiceTypeName":"SvcType",` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"TargetReplicaSetSize":3,` +
				`"MinReplicaSetSize":2,"HasPersistedState":true}`,
			wantKind: ServiceKindStateful,
		},
		{
			name: "stateless with kind last",
			input: `{"ServiceName":"fabric:/app/web","ServiceTypeName":"WebType","InstanceCount":-1,` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"ServiceKind":"Stateless"}`,
			wantKind: ServiceKindStateless,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := UnmarshalServiceDescription([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, d.ServiceKind())
		})
	}
}

func TestUnmarshalStatefulServiceDescription(t *testing.T) {
	input := `{"ServiceKind":"Stateful","ServiceName":"fabric:/app/svc","ServiceTypeName":"SvcType",` +
		`"PartitionDescription":{"PartitionScheme":"Singleton"},"TargetReplicaSetSize":3,` +
		`"MinReplicaSetSize":2,"HasPersistedState":true,"ScalingPolicies":[{"Kind":"x"}]}`

	d, err := UnmarshalServiceDescription([]byte(input))
	require.NoError(t, err)

	stateful, ok := d.(StatefulServiceDescription)
	require.True(t, ok, "got %T", d)
	assert.Equal(t, "fabric:/app/svc", stateful.ServiceName)
	assert.Equal(t, int32(3), stateful.TargetReplicaSetSize)
	assert.Equal(t, int32(2), stateful.MinReplicaSetSize)
	assert.True(t, stateful.HasPersistedState)
	assert.Equal(t, SingletonPartitionSchemeDescription{}, stateful.PartitionDescription)
	assert.False(t, stateful.ApplicationName.IsSet())
}

func TestUnmarshalServiceDescriptionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{
			name:  "unknown kind",
			input: `{"ServiceKind":"Hybrid","ServiceName":"s"}`,
			check: apierror.IsUnknownDiscriminator,
		},
		{
			name:  "missing kind",
			input: `{"ServiceName":"s","ServiceTypeName":"t"}`,
			check: apierror.IsMissingRequiredField,
		},
		{
			name: "missing partition description",
			input: `{"ServiceKind":"Stateless","ServiceName":"s","ServiceTypeName":"t","InstanceCount":1}`,
			check: apierror.IsMissingRequiredField,
		},
		{
			name: "unknown partition scheme",
			input: `{"ServiceKind":"Stateless","ServiceName":"s","ServiceTypeName":"t","InstanceCount":1,` +
				`"PartitionDescription":{"PartitionScheme":"Hashed"}}`,
			check: apierror.IsUnknownDiscriminator,
		},
		{
			name: "missing replica set size",
			input: `{"ServiceKind":"Stateful","ServiceName":"s","ServiceTypeName":"t","HasPersistedState":false,` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"MinReplicaSetSize":1}`,
			check: apierror.IsMissingRequiredField,
		},
		{
			name: "min above target",
			input: `{"ServiceKind":"Stateful","ServiceName":"s","ServiceTypeName":"t","HasPersistedState":false,` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"TargetReplicaSetSize":1,"MinReplicaSetSize":3}`,
			check: apierror.IsMalformedValue,
		},
		{
			name: "bad activation mode",
			input: `{"ServiceKind":"Stateless","ServiceName":"s","ServiceTypeName":"t","InstanceCount":1,` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"ServicePackageActivationMode":"Shared"}`,
			check: apierror.IsMalformedValue,
		},
		{
			name: "initialization data out of byte range",
			input: `{"ServiceKind":"Stateless","ServiceName":"s","ServiceTypeName":"t","InstanceCount":1,` +
				`"PartitionDescription":{"PartitionScheme":"Singleton"},"InitializationData":[1,256]}`,
			check: apierror.IsMalformedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalServiceDescription([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestServiceDescriptionRoundTrip(t *testing.T) {
	named, err := NewNamedPartitionSchemeDescription("east", "west")
	require.NoError(t, err)
	ranged, err := NewUniformInt64RangePartitionSchemeDescription(4, -9223372036854775808, 9223372036854775807)
	require.NoError(t, err)

	stateful, err := NewStatefulServiceDescription("fabric:/app/db", "DbType", ranged, 5, 3, true)
	require.NoError(t, err)
	stateful = stateful.WithApplicationName("fabric:/app").
		WithReplicaRestartWaitDuration(60).
		WithQuorumLossWaitDuration(120)

	stateless, err := NewStatelessServiceDescription("fabric:/app/web", "WebType", named, 2)
	require.NoError(t, err)
	stateless = stateless.WithMinInstanceCount(1).WithPlacementConstraints("NodeType == FrontEnd")
	stateless.InitializationData = optional.Of([]byte{0, 7, 255})
	stateless.ServicePackageActivationMode = optional.Of(ServicePackageActivationModeExclusiveProcess)

	for _, original := range []ServiceDescription{stateful, stateless} {
		t.Run(string(original.ServiceKind()), func(t *testing.T) {
			data, err := MarshalServiceDescription(original)
			require.NoError(t, err)

			decoded, err := UnmarshalServiceDescription(data)
			require.NoError(t, err)
			if diff := cmp.Diff(original, decoded, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalServiceDescriptionWritesKindFirst(t *testing.T) {
	d, err := NewStatelessServiceDescription("fabric:/app/web", "WebType", SingletonPartitionSchemeDescription{}, 1)
	require.NoError(t, err)

	data, err := MarshalServiceDescription(d)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ServiceKind":"Stateless","ServiceName":"fabric:/app/web","ServiceTypeName":"WebType",`+
			`"PartitionDescription":{"PartitionScheme":"Singleton"},"InstanceCount":1}`,
		string(data))
}

func TestUniformRangeKeysAreStrings(t *testing.T) {
	d, err := NewUniformInt64RangePartitionSchemeDescription(2, -10, 10)
	require.NoError(t, err)

	data, err := MarshalPartitionSchemeDescription(d)
	require.NoError(t, err)
	assert.Equal(t, `{"PartitionScheme":"UniformInt64Range","Count":2,"LowKey":"-10","HighKey":"10"}`, string(data))

	_, err = UnmarshalPartitionSchemeDescription([]byte(`{"PartitionScheme":"UniformInt64Range","Count":2,"LowKey":-10,"HighKey":"10"}`))
	assert.True(t, apierror.IsMalformedValue(err))
}

func TestPartitionSchemeValidation(t *testing.T) {
	_, err := NewUniformInt64RangePartitionSchemeDescription(2, 10, -10)
	assert.True(t, apierror.IsMalformedValue(err))

	_, err = NewUniformInt64RangePartitionSchemeDescription(0, 0, 10)
	assert.True(t, apierror.IsMalformedValue(err))

	_, err = NewNamedPartitionSchemeDescription()
	assert.True(t, apierror.IsMissingRequiredField(err))

	_, err = UnmarshalPartitionSchemeDescription([]byte(`{"PartitionScheme":"Named","Count":3,"Names":["a","b"]}`))
	assert.True(t, apierror.IsMalformedValue(err))
}

func TestServiceDescriptionRequiresName(t *testing.T) {
	_, err := NewStatelessServiceDescription("", "WebType", SingletonPartitionSchemeDescription{}, 1)
	require.Error(t, err)
	assert.True(t, apierror.IsMissingRequiredField(err))

	_, err = NewStatelessServiceDescription("fabric:/app/web", "WebType", nil, 1)
	assert.True(t, apierror.IsMissingRequiredField(err))
}

func TestServiceInfoRoundTrip(t *testing.T) {
	infos := []ServiceInfo{
		StatefulServiceInfo{
			ServiceInfoCommon: ServiceInfoCommon{
				ID:              "app~db",
				Name:            "fabric:/app/db",
				TypeName:        "DbType",
				ManifestVersion: "1.0.0",
				HealthState:     HealthStateOk,
				ServiceStatus:   ServiceStatusActive,
				IsServiceGroup:  optional.Of(false),
			},
			HasPersistedState: true,
		},
		StatelessServiceInfo{
			ServiceInfoCommon: ServiceInfoCommon{
				ID:              "app~web",
				Name:            "fabric:/app/web",
				TypeName:        "WebType",
				ManifestVersion: "2.1.0",
				HealthState:     HealthStateWarning,
				ServiceStatus:   ServiceStatusUpgrading,
			},
		},
	}

	for _, original := range infos {
		t.Run(original.Info().Name, func(t *testing.T) {
			data, err := MarshalServiceInfo(original)
			require.NoError(t, err)

			decoded, err := UnmarshalServiceInfo(data)
			require.NoError(t, err)
			if diff := cmp.Diff(original, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServiceInfoStatefulRequiresPersistedState(t *testing.T) {
	input := `{"ServiceKind":"Stateful","Id":"a","Name":"n","TypeName":"t","ManifestVersion":"1",` +
		`"HealthState":"Ok","ServiceStatus":"Active"}`
	_, err := UnmarshalServiceInfo([]byte(input))
	require.Error(t, err)
	assert.True(t, apierror.IsMissingRequiredField(err))
}
