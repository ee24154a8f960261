package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/metrics"
	"github.com/cuemby/fabricapi/pkg/optional"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	ID     uuid.UUID
	Weight float64
}

type widget struct {
	Name    string
	Size    int64
	Tags    []string
	Label   optional.Value[string]
	Part    optional.Value[part]
	Created optional.Value[time.Time]
	Timeout optional.Value[time.Duration]
}

var partRecord = Record[part]{
	Name: "part",
	Decode: func(r *ObjectReader) (part, error) {
		var p part
		var err error
		for r.Next() {
			switch r.Name() {
			case "Id":
				p.ID, err = r.UUID()
			case "Weight":
				p.Weight, err = r.Float64()
			default:
				r.Skip()
			}
			if err != nil {
				return part{}, err
			}
		}
		return p, r.Err()
	},
	Encode: func(w *ObjectWriter, p part) error {
		w.UUID("Id", p.ID)
		w.Float64("Weight", p.Weight)
		return w.Err()
	},
}

var widgetRecord = Record[widget]{
	Name: "widget",
	Decode: func(r *ObjectReader) (widget, error) {
		var (
			w    widget
			name optional.Value[string]
			err  error
		)
		for r.Next() {
			switch r.Name() {
			case "Name":
				name, err = ReadOptional(r, (*ObjectReader).String)
			case "Size":
				w.Size, err = r.Int64()
			case "Tags":
				w.Tags, err = ReadArray(r, (*ObjectReader).String)
			case "Label":
				w.Label, err = ReadOptional(r, (*ObjectReader).String)
			case "Part":
				w.Part, err = ReadOptional(r, ObjectOf(partRecord))
			case "Created":
				w.Created, err = ReadOptional(r, (*ObjectReader).Time)
			case "Timeout":
				w.Timeout, err = ReadOptional(r, (*ObjectReader).Duration)
			default:
				r.Skip()
			}
			if err != nil {
				return widget{}, err
			}
		}
		if err := r.Err(); err != nil {
			return widget{}, err
		}
		w.Name, err = Require(r.Record(), "Name", name)
		return w, err
	},
	Encode: func(w *ObjectWriter, v widget) error {
		w.String("Name", v.Name)
		w.Int64("Size", v.Size)
		WriteArray(w, "Tags", v.Tags, StringElement)
		WriteOptional(w, "Label", v.Label, (*ObjectWriter).String)
		WriteOptional(w, "Part", v.Part, ObjectWriterOf(partRecord))
		WriteOptional(w, "Created", v.Created, (*ObjectWriter).Time)
		WriteOptional(w, "Timeout", v.Timeout, (*ObjectWriter).Duration)
		return w.Err()
	},
}

func TestUnmarshal(t *testing.T) {
	id := uuid.MustParse("6f2c1a8e-3b1d-4c55-9a0e-1f4b2d7c9e10")

	tests := []struct {
		name  string
		input string
		want  widget
	}{
		{
			name:  "required only",
			input: `{"Name":"w1","Size":3,"Tags":["a","b"]}`,
			want:  widget{Name: "w1", Size: 3, Tags: []string{"a", "b"}},
		},
		{
			name:  "optional values",
			input: `{"Name":"w2","Label":"blue","Part":{"Id":"6f2c1a8e-3b1d-4c55-9a0e-1f4b2d7c9e10","Weight":1.5}}`,
			want: widget{
				Name:  "w2",
				Label: optional.Of("blue"),
				Part:  optional.Of(part{ID: id, Weight: 1.5}),
			},
		},
		{
			name:  "null optional is unset",
			input: `{"Name":"w3","Label":null,"Part":null}`,
			want:  widget{Name: "w3"},
		},
		{
			name:  "empty array",
			input: `{"Name":"w4","Tags":[]}`,
			want:  widget{Name: "w4"},
		},
		{
			name:  "last duplicate wins",
			input: `{"Name":"first","Size":1,"Name":"second"}`,
			want:  widget{Name: "second", Size: 1},
		},
		{
			name:  "whitespace",
			input: "\n{ \"Name\" : \"w5\" ,\n\t\"Size\": -7 }\n",
			want:  widget{Name: "w5", Size: -7},
		},
		{
			name:  "duration and time",
			input: `{"Name":"w6","Created":"2024-03-01T10:20:30.5Z","Timeout":"PT1H30M"}`,
			want: widget{
				Name:    "w6",
				Created: optional.Of(time.Date(2024, 3, 1, 10, 20, 30, 500000000, time.UTC)),
				Timeout: optional.Of(90 * time.Minute),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input), widgetRecord)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshalSkipsUnknownProperties(t *testing.T) {
	counter := metrics.UnknownPropertiesTotal.WithLabelValues("widget")
	before := testutil.ToFloat64(counter)

	input := `{"Extra":{"Nested":[1,2,{"Deep":null}]},"Name":"w","Future":[true,false],"Size":9,"Also":"x"}`
	got, err := Unmarshal([]byte(input), widgetRecord)
	require.NoError(t, err)

	assert.Equal(t, "w", got.Name)
	assert.Equal(t, int64(9), got.Size)
	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"missing required", `{"Size":1}`, apierror.IsMissingRequiredField},
		{"null required", `{"Name":null}`, apierror.IsMissingRequiredField},
		{"wrong type", `{"Name":"w","Size":"big"}`, apierror.IsMalformedValue},
		{"fractional integer", `{"Name":"w","Size":1.5}`, apierror.IsMalformedValue},
		{"bad array element", `{"Name":"w","Tags":["a",2]}`, apierror.IsMalformedValue},
		{"bad uuid", `{"Name":"w","Part":{"Id":"nope"}}`, apierror.IsMalformedValue},
		{"bad time", `{"Name":"w","Created":"yesterday"}`, apierror.IsMalformedValue},
		{"bad duration", `{"Name":"w","Timeout":"30 seconds"}`, apierror.IsMalformedValue},
		{"truncated after value", `{"Name":"w","Size":1`, apierror.IsMalformedValue},
		{"truncated after string", `{"Name":"w"`, apierror.IsMalformedValue},
		{"empty input", ``, apierror.IsMalformedValue},
		{"not an object", `["Name"]`, apierror.IsMalformedValue},
		{"trailing data", `{"Name":"w"} {}`, apierror.IsMalformedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input), widgetRecord)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestUnmarshalMissingFieldNamesRecord(t *testing.T) {
	_, err := Unmarshal([]byte(`{}`), widgetRecord)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widget")
	assert.Contains(t, err.Error(), "Name")
}

func TestDecodeStream(t *testing.T) {
	got, err := DecodeStream(strings.NewReader(`{"Name":"streamed","Tags":["x"]}`), widgetRecord)
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "streamed", Tags: []string{"x"}}, got)
}

func TestMarshal(t *testing.T) {
	w := widget{
		Name:  "w",
		Size:  2,
		Tags:  []string{"a"},
		Label: optional.Of("l"),
	}

	data, err := Marshal(w, widgetRecord)
	require.NoError(t, err)
	assert.Equal(t, `{"Name":"w","Size":2,"Tags":["a"],"Label":"l"}`, string(data))
}

func TestMarshalOmitsUnsetOptionals(t *testing.T) {
	data, err := Marshal(widget{Name: "w"}, widgetRecord)
	require.NoError(t, err)
	assert.Equal(t, `{"Name":"w","Size":0,"Tags":[]}`, string(data))
}

func TestMarshalTimeIsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	w := widget{Name: "w", Created: optional.Of(time.Date(2024, 3, 1, 12, 0, 0, 0, zone))}

	data, err := Marshal(w, widgetRecord)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Created":"2024-03-01T10:00:00Z"`)
}

func TestMarshalRejectsNaN(t *testing.T) {
	var zero float64
	w := widget{Name: "w", Part: optional.Of(part{Weight: zero / zero})}

	_, err := Marshal(w, widgetRecord)
	require.Error(t, err)
	assert.True(t, apierror.IsMalformedValue(err))
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(part{ID: uuid.Nil, Weight: 2}, partRecord)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"Weight\": 2")
}

func TestRoundTrip(t *testing.T) {
	original := widget{
		Name:    "round",
		Size:    -42,
		Tags:    []string{"x", "y", "z"},
		Label:   optional.Of(""),
		Part:    optional.Of(part{ID: uuid.New(), Weight: 0.25}),
		Created: optional.Of(time.Date(2023, 12, 31, 23, 59, 59, 123456789, time.UTC)),
		Timeout: optional.Of(45 * time.Second),
	}

	data, err := Marshal(original, widgetRecord)
	require.NoError(t, err)

	decoded, err := Unmarshal(data, widgetRecord)
	require.NoError(t, err)
	if diff := cmp.Diff(original, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodecOperationMetrics(t *testing.T) {
	success := metrics.CodecOperationsTotal.WithLabelValues("part", metrics.OperationDecode, metrics.ResultSuccess)
	failure := metrics.CodecOperationsTotal.WithLabelValues("part", metrics.OperationDecode, metrics.ResultError)
	successBefore := testutil.ToFloat64(success)
	failureBefore := testutil.ToFloat64(failure)

	_, err := Unmarshal([]byte(`{"Weight":1}`), partRecord)
	require.NoError(t, err)
	_, err = Unmarshal([]byte(`{"Weight":"heavy"}`), partRecord)
	require.Error(t, err)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(success))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(failure))
}
