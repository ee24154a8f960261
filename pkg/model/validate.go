package model

import (
	"fmt"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/codec"
	"github.com/google/uuid"
)

// requireString and requireUUID treat the zero value as absent. Only
// constructors use them: on the wire, presence alone decides whether a
// required property is missing, so "" and the nil UUID are valid values.
func requireString(record, field, v string) error {
	if v == "" {
		return apierror.MissingRequiredField(record, field)
	}
	return nil
}

func requireUUID(record, field string, v uuid.UUID) error {
	if v == uuid.Nil {
		return apierror.MissingRequiredField(record, field)
	}
	return nil
}

// requireEnum treats the empty string as missing and anything outside the
// enum's value set as malformed.
func requireEnum[E codec.Enum](record, field string, v E) error {
	if v == "" {
		return apierror.MissingRequiredField(record, field)
	}
	if !v.IsValid() {
		return apierror.MalformedValue(record, field, fmt.Errorf("unknown value %q", string(v)))
	}
	return nil
}

func optionalEnum[E codec.Enum](record, field string, v E, set bool) error {
	if set && !v.IsValid() {
		return apierror.MalformedValue(record, field, fmt.Errorf("unknown value %q", string(v)))
	}
	return nil
}

func requireNonNegative(record, field string, v int64) error {
	if v < 0 {
		return apierror.MalformedValue(record, field, fmt.Errorf("negative value %d", v))
	}
	return nil
}
