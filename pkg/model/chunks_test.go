package model

import (
	"testing"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationHealthStateFilterRoundTrip(t *testing.T) {
	partitionID := uuid.MustParse("0b5a4c2e-8f61-4d0a-b3a7-2c9d1e6f4a58")
	filter := ApplicationHealthStateFilter{
		ApplicationNameFilter: optional.Of("fabric:/app"),
		HealthStateFilter:     optional.Of(HealthStateFilter(6)),
		ServiceFilters: []ServiceHealthStateFilter{
			{
				ServiceNameFilter: optional.Of("fabric:/app/svc"),
				PartitionFilters: []PartitionHealthStateFilter{
					{
						PartitionIDFilter: optional.Of(partitionID),
						HealthStateFilter: optional.Of(HealthStateFilterError),
						ReplicaFilters: []ReplicaHealthStateFilter{
							{HealthStateFilter: optional.Of(HealthStateFilterAll)},
						},
					},
				},
			},
		},
	}

	data, err := codec.Marshal(filter, ApplicationHealthStateFilterRecord)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"HealthStateFilter":6`)

	decoded, err := codec.Unmarshal(data, ApplicationHealthStateFilterRecord)
	require.NoError(t, err)
	if diff := cmp.Diff(filter, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHealthStateFilterDecodesAsBits(t *testing.T) {
	f, err := codec.Unmarshal([]byte(`{"HealthStateFilter":6}`), ReplicaHealthStateFilterRecord)
	require.NoError(t, err)

	value, ok := f.HealthStateFilter.Get()
	require.True(t, ok)
	assert.True(t, value.Matches(HealthStateOk))
	assert.True(t, value.Matches(HealthStateWarning))
	assert.False(t, value.Matches(HealthStateError))
}

func TestEmptyFilterMarshal(t *testing.T) {
	data, err := codec.Marshal(ApplicationHealthStateFilter{}, ApplicationHealthStateFilterRecord)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestFilterMatchesChunk(t *testing.T) {
	chunk, err := NewReplicaHealthStateChunk("1301", HealthStateWarning)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter ReplicaHealthStateFilter
		want   bool
	}{
		{"unset matches", ReplicaHealthStateFilter{}, true},
		{"id match", ReplicaHealthStateFilter{ReplicaOrInstanceIDFilter: optional.Of("1301")}, true},
		{"id mismatch", ReplicaHealthStateFilter{ReplicaOrInstanceIDFilter: optional.Of("1302")}, false},
		{"state mismatch", ReplicaHealthStateFilter{HealthStateFilter: optional.Of(HealthStateFilterError)}, false},
		{"state match", ReplicaHealthStateFilter{HealthStateFilter: optional.Of(HealthStateFilter(6))}, true},
		{"none", ReplicaHealthStateFilter{HealthStateFilter: optional.Of(HealthStateFilterNone)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(chunk))
		})
	}
}

func TestServiceHealthStateChunkListRoundTrip(t *testing.T) {
	replica, err := NewReplicaHealthStateChunk("131", HealthStateOk)
	require.NoError(t, err)
	partition, err := NewPartitionHealthStateChunk(uuid.New(), HealthStateOk)
	require.NoError(t, err)
	partition = partition.WithReplicaHealthStateChunks(ReplicaHealthStateChunkList{
		TotalCount: 3,
		Items:      []ReplicaHealthStateChunk{replica},
	})
	service, err := NewServiceHealthStateChunk("fabric:/app/svc", HealthStateWarning)
	require.NoError(t, err)
	service = service.WithPartitionHealthStateChunks(PartitionHealthStateChunkList{
		TotalCount: 1,
		Items:      []PartitionHealthStateChunk{partition},
	})

	list := ServiceHealthStateChunkList{TotalCount: 1, Items: []ServiceHealthStateChunk{service}}

	data, err := codec.Marshal(list, ServiceHealthStateChunkListRecord)
	require.NoError(t, err)

	decoded, err := codec.Unmarshal(data, ServiceHealthStateChunkListRecord)
	require.NoError(t, err)
	if diff := cmp.Diff(list, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChunkListEmptyItems(t *testing.T) {
	data, err := codec.Marshal(ReplicaHealthStateChunkList{}, ReplicaHealthStateChunkListRecord)
	require.NoError(t, err)
	assert.Equal(t, `{"TotalCount":0,"Items":[]}`, string(data))

	decoded, err := codec.Unmarshal(data, ReplicaHealthStateChunkListRecord)
	require.NoError(t, err)
	assert.Equal(t, int64(0), decoded.TotalCount)
	assert.Empty(t, decoded.Items)
}

func TestChunkListErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"missing total", `{"Items":[]}`, apierror.IsMissingRequiredField},
		{"negative total", `{"TotalCount":-1,"Items":[]}`, apierror.IsMalformedValue},
		{"item missing id", `{"TotalCount":1,"Items":[{"HealthState":"Ok"}]}`, apierror.IsMissingRequiredField},
		{"item bad state", `{"TotalCount":1,"Items":[{"ReplicaOrInstanceId":"1","HealthState":"Sad"}]}`, apierror.IsMalformedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Unmarshal([]byte(tt.input), ReplicaHealthStateChunkListRecord)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestPartitionChunkRequiresID(t *testing.T) {
	_, err := NewPartitionHealthStateChunk(uuid.Nil, HealthStateOk)
	require.Error(t, err)
	assert.True(t, apierror.IsMissingRequiredField(err))
}
