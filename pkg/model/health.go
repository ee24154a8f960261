package model

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/cuemby/fabricapi/pkg/optional"
)

// HealthState is the aggregated health of a cluster entity
type HealthState string

const (
	HealthStateInvalid HealthState = "Invalid"
	HealthStateOk      HealthState = "Ok"
	HealthStateWarning HealthState = "Warning"
	HealthStateError   HealthState = "Error"
	HealthStateUnknown HealthState = "Unknown"
)

// IsValid reports whether s is one of the known health states
func (s HealthState) IsValid() bool {
	switch s {
	case HealthStateInvalid, HealthStateOk, HealthStateWarning, HealthStateError, HealthStateUnknown:
		return true
	}
	return false
}

// HealthStateFilter is a bit set of health states used to select entities
// in health queries. It travels on the wire as an integer.
type HealthStateFilter int64

const (
	// HealthStateFilterDefault matches every state
	HealthStateFilterDefault HealthStateFilter = 0
	// HealthStateFilterNone matches no state
	HealthStateFilterNone    HealthStateFilter = 1
	HealthStateFilterOk      HealthStateFilter = 2
	HealthStateFilterWarning HealthStateFilter = 4
	HealthStateFilterError   HealthStateFilter = 8
	// HealthStateFilterAll matches every state
	HealthStateFilterAll HealthStateFilter = 65535
)

// filterBit returns the filter bit selecting s. Invalid and Unknown have
// none.
func (s HealthState) filterBit() HealthStateFilter {
	switch s {
	case HealthStateOk:
		return HealthStateFilterOk
	case HealthStateWarning:
		return HealthStateFilterWarning
	case HealthStateError:
		return HealthStateFilterError
	}
	return 0
}

// Matches reports whether an entity in state s passes the filter
func (f HealthStateFilter) Matches(s HealthState) bool {
	switch f {
	case HealthStateFilterDefault, HealthStateFilterAll:
		return true
	case HealthStateFilterNone:
		return false
	}
	return f&s.filterBit() != 0
}

// States returns the health states selected by the filter's bits, in
// ascending bit order.
func (f HealthStateFilter) States() []HealthState {
	if f == HealthStateFilterDefault || f == HealthStateFilterAll {
		return []HealthState{HealthStateOk, HealthStateWarning, HealthStateError}
	}
	var states []HealthState
	for _, s := range []HealthState{HealthStateOk, HealthStateWarning, HealthStateError} {
		if f&s.filterBit() != 0 {
			states = append(states, s)
		}
	}
	return states
}

const (
	// MaxDescriptionLength is the longest health report description, in
	// characters, that the server accepts.
	MaxDescriptionLength = 4096

	// TruncationMarker ends a description that was cut to fit
	TruncationMarker = "[Truncated]"
)

// TruncateDescription cuts s to MaxDescriptionLength characters, ending
// it with TruncationMarker. Shorter strings are returned unchanged.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	keep := MaxDescriptionLength - utf8.RuneCountInString(TruncationMarker)
	runes := []rune(s)
	return string(runes[:keep]) + TruncationMarker
}

// HealthInformation is a health report as sent by a watchdog or system
// component.
type HealthInformation struct {
	SourceID    string
	Property    string
	HealthState HealthState

	// TimeToLive defaults to infinite on the server when unset
	TimeToLive        optional.Value[time.Duration]
	Description       optional.Value[string]
	SequenceNumber    optional.Value[string]
	RemoveWhenExpired optional.Value[bool]
	HealthReportID    optional.Value[string]
}

// NewHealthInformation builds a report from its required fields
func NewHealthInformation(sourceID, property string, state HealthState) (HealthInformation, error) {
	h := HealthInformation{SourceID: sourceID, Property: property, HealthState: state}
	if err := requireString("HealthInformation", "SourceId", sourceID); err != nil {
		return HealthInformation{}, err
	}
	if err := requireString("HealthInformation", "Property", property); err != nil {
		return HealthInformation{}, err
	}
	if err := h.Validate(); err != nil {
		return HealthInformation{}, err
	}
	return h, nil
}

func (h HealthInformation) WithTimeToLive(ttl time.Duration) HealthInformation {
	h.TimeToLive = optional.Of(ttl)
	return h
}

// WithDescription sets the description, truncating it to
// MaxDescriptionLength.
func (h HealthInformation) WithDescription(description string) HealthInformation {
	h.Description = optional.Of(TruncateDescription(description))
	return h
}

func (h HealthInformation) WithSequenceNumber(seq string) HealthInformation {
	h.SequenceNumber = optional.Of(seq)
	return h
}

func (h HealthInformation) WithRemoveWhenExpired(remove bool) HealthInformation {
	h.RemoveWhenExpired = optional.Of(remove)
	return h
}

func (h HealthInformation) WithHealthReportID(id string) HealthInformation {
	h.HealthReportID = optional.Of(id)
	return h
}

// TimeToLiveOrInfinite returns the report's time to live, treating an
// unset value as never expiring.
func (h HealthInformation) TimeToLiveOrInfinite() time.Duration {
	return h.TimeToLive.OrElse(codec.InfiniteDuration)
}

// Validate checks required fields and value ranges
func (h HealthInformation) Validate() error {
	return h.validate("HealthInformation")
}

func (h HealthInformation) validate(record string) error {
	if err := requireEnum(record, "HealthState", h.HealthState); err != nil {
		return err
	}
	if ttl, ok := h.TimeToLive.Get(); ok && ttl < 0 {
		return apierror.MalformedValue(record, "TimeToLiveInMilliSeconds", fmt.Errorf("negative duration %s", ttl))
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (h HealthInformation) MarshalJSON() ([]byte, error) {
	return codec.Marshal(h, HealthInformationRecord)
}

// UnmarshalJSON implements json.Unmarshaler
func (h *HealthInformation) UnmarshalJSON(data []byte) error {
	v, err := codec.Unmarshal(data, HealthInformationRecord)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// HealthInformationRecord converts HealthInformation
var HealthInformationRecord = codec.Record[HealthInformation]{
	Name:   "HealthInformation",
	Decode: decodeHealthInformation,
	Encode: encodeHealthInformation,
}

func decodeHealthInformation(r *codec.ObjectReader) (HealthInformation, error) {
	var s healthInformationSlots
	for r.Next() {
		handled, err := s.bind(r)
		if err != nil {
			return HealthInformation{}, err
		}
		if !handled {
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		return HealthInformation{}, err
	}
	h, err := s.build(r.Record())
	if err != nil {
		return HealthInformation{}, err
	}
	return h, h.Validate()
}

func encodeHealthInformation(w *codec.ObjectWriter, h HealthInformation) error {
	if err := h.Validate(); err != nil {
		return err
	}
	writeHealthInformation(w, h)
	return w.Err()
}

// healthInformationSlots collects the health report properties, which are
// shared by HealthInformation and HealthEvent.
type healthInformationSlots struct {
	sourceID          optional.Value[string]
	property          optional.Value[string]
	healthState       optional.Value[HealthState]
	timeToLive        optional.Value[time.Duration]
	description       optional.Value[string]
	sequenceNumber    optional.Value[string]
	removeWhenExpired optional.Value[bool]
	healthReportID    optional.Value[string]
}

func (s *healthInformationSlots) bind(r *codec.ObjectReader) (bool, error) {
	var err error
	switch r.Name() {
	case "SourceId":
		s.sourceID, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "Property":
		s.property, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "HealthState":
		s.healthState, err = codec.ReadOptional(r, codec.ReadEnum[HealthState])
	case "TimeToLiveInMilliSeconds":
		s.timeToLive, err = codec.ReadOptional(r, (*codec.ObjectReader).Duration)
	case "Description":
		s.description, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "SequenceNumber":
		s.sequenceNumber, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	case "RemoveWhenExpired":
		s.removeWhenExpired, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool)
	case "HealthReportId":
		s.healthReportID, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
	default:
		return false, nil
	}
	return true, err
}

func (s *healthInformationSlots) build(record string) (HealthInformation, error) {
	sourceID, err := codec.Require(record, "SourceId", s.sourceID)
	if err != nil {
		return HealthInformation{}, err
	}
	property, err := codec.Require(record, "Property", s.property)
	if err != nil {
		return HealthInformation{}, err
	}
	state, err := codec.Require(record, "HealthState", s.healthState)
	if err != nil {
		return HealthInformation{}, err
	}

	h := HealthInformation{
		SourceID:          sourceID,
		Property:          property,
		HealthState:       state,
		TimeToLive:        s.timeToLive,
		SequenceNumber:    s.sequenceNumber,
		RemoveWhenExpired: s.removeWhenExpired,
		HealthReportID:    s.healthReportID,
	}
	if d, ok := s.description.Get(); ok {
		h.Description = optional.Of(TruncateDescription(d))
	}
	return h, nil
}

func writeHealthInformation(w *codec.ObjectWriter, h HealthInformation) {
	w.String("SourceId", h.SourceID)
	w.String("Property", h.Property)
	codec.WriteEnum(w, "HealthState", h.HealthState)
	codec.WriteOptional(w, "TimeToLiveInMilliSeconds", h.TimeToLive, (*codec.ObjectWriter).Duration)
	if d, ok := h.Description.Get(); ok {
		w.String("Description", TruncateDescription(d))
	}
	codec.WriteOptional(w, "SequenceNumber", h.SequenceNumber, (*codec.ObjectWriter).String)
	codec.WriteOptional(w, "RemoveWhenExpired", h.RemoveWhenExpired, (*codec.ObjectWriter).Bool)
	codec.WriteOptional(w, "HealthReportId", h.HealthReportID, (*codec.ObjectWriter).String)
}

// HealthEvent is a health report as stored by the cluster, with the
// bookkeeping the server adds on receipt.
type HealthEvent struct {
	HealthInformation

	IsExpired                bool
	SourceUTCTimestamp       optional.Value[time.Time]
	LastModifiedUTCTimestamp optional.Value[time.Time]
	LastOkTransitionAt       optional.Value[time.Time]
	LastWarningTransitionAt  optional.Value[time.Time]
	LastErrorTransitionAt    optional.Value[time.Time]
}

// Validate checks required fields and value ranges
func (e HealthEvent) Validate() error {
	return e.HealthInformation.validate("HealthEvent")
}

// MarshalJSON implements json.Marshaler
func (e HealthEvent) MarshalJSON() ([]byte, error) {
	return codec.Marshal(e, HealthEventRecord)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *HealthEvent) UnmarshalJSON(data []byte) error {
	v, err := codec.Unmarshal(data, HealthEventRecord)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// HealthEventRecord converts HealthEvent
var HealthEventRecord = codec.Record[HealthEvent]{
	Name:   "HealthEvent",
	Decode: decodeHealthEvent,
	Encode: encodeHealthEvent,
}

func decodeHealthEvent(r *codec.ObjectReader) (HealthEvent, error) {
	var (
		s         healthInformationSlots
		e         HealthEvent
		isExpired optional.Value[bool]
	)
	for r.Next() {
		handled, err := s.bind(r)
		if err != nil {
			return HealthEvent{}, err
		}
		if handled {
			continue
		}
		switch r.Name() {
		case "IsExpired":
			isExpired, err = codec.ReadOptional(r, (*codec.ObjectReader).Bool)
		case "SourceUtcTimestamp":
			e.SourceUTCTimestamp, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
		case "LastModifiedUtcTimestamp":
			e.LastModifiedUTCTimestamp, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
		case "LastOkTransitionAt":
			e.LastOkTransitionAt, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
		case "LastWarningTransitionAt":
			e.LastWarningTransitionAt, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
		case "LastErrorTransitionAt":
			e.LastErrorTransitionAt, err = codec.ReadOptional(r, (*codec.ObjectReader).Time)
		default:
			r.Skip()
		}
		if err != nil {
			return HealthEvent{}, err
		}
	}
	if err := r.Err(); err != nil {
		return HealthEvent{}, err
	}

	info, err := s.build(r.Record())
	if err != nil {
		return HealthEvent{}, err
	}
	e.HealthInformation = info
	if e.IsExpired, err = codec.Require(r.Record(), "IsExpired", isExpired); err != nil {
		return HealthEvent{}, err
	}
	return e, e.Validate()
}

func encodeHealthEvent(w *codec.ObjectWriter, e HealthEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	writeHealthInformation(w, e.HealthInformation)
	w.Bool("IsExpired", e.IsExpired)
	codec.WriteOptional(w, "SourceUtcTimestamp", e.SourceUTCTimestamp, (*codec.ObjectWriter).Time)
	codec.WriteOptional(w, "LastModifiedUtcTimestamp", e.LastModifiedUTCTimestamp, (*codec.ObjectWriter).Time)
	codec.WriteOptional(w, "LastOkTransitionAt", e.LastOkTransitionAt, (*codec.ObjectWriter).Time)
	codec.WriteOptional(w, "LastWarningTransitionAt", e.LastWarningTransitionAt, (*codec.ObjectWriter).Time)
	codec.WriteOptional(w, "LastErrorTransitionAt", e.LastErrorTransitionAt, (*codec.ObjectWriter).Time)
	return w.Err()
}
