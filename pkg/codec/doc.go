/*
Package codec converts records to and from the JSON wire format of the
cluster management REST API.

The package is a small engine rather than a reflection based marshaler.
Each record shape supplies a Record value: a name plus a decode and an
encode function written against ObjectReader and ObjectWriter. The model
package holds those converters; this package only knows how to walk JSON.

# Decoding

ObjectReader is a pull-style stream of properties built on a
json-iterator Iterator. A decoder loops over Next, switches on Name and
reads each value with a typed method (String, Int64, Time, Duration,
UUID and so on) or with the generic helpers ReadOptional, ReadEnum,
ReadObject and ReadArray:

	for r.Next() {
		switch r.Name() {
		case "NodeName":
			name, err = codec.ReadOptional(r, (*codec.ObjectReader).String)
		default:
			r.Skip()
		}
	}

Properties a decoder does not recognize are skipped, counted in
fabricapi_codec_unknown_properties_total and logged at debug level. This
keeps older clients working against newer servers. A property that
appears twice keeps its last value. JSON null is treated the same as an
absent property, and Require turns an unset slot into a
MissingRequiredField error.

# Unions

A Union dispatches on a discriminator property such as ServiceKind. The
discriminator may appear anywhere in the object: properties that precede
it are buffered in arrival order and replayed to the selected member's
decoder, followed by the rest of the live stream. An unregistered value
fails with UnknownDiscriminator. A repeated discriminator must agree with
the first one.

# Encoding

ObjectWriter emits properties in the order the encoder writes them, so
each record shape has one fixed field order. WriteOptional omits unset
values. Timestamps are written in UTC with RFC 3339 nanosecond precision
and durations in ISO-8601 form.

# Errors

Every failure is an *apierror.Error with one of the codec codes:
MissingRequiredField, UnknownDiscriminator or MalformedValue. Truncated
input, type mismatches and trailing data after the top-level object are
all MalformedValue.
*/
package codec
