/*
Package apierror defines the error type shared by every fabricapi package.

There is exactly one concrete type, *Error, carrying a message, an optional
cause, a Code from a closed set and a transience flag. Codec failures use
CodeMissingRequiredField, CodeUnknownDiscriminator and CodeMalformedValue;
failures handed up by a transport use the remaining codes. Nothing in this
module retries. Callers that do can consult IsTransient.

# Construction

	apierror.New()                                    // Unknown, not transient
	apierror.NewMessage("lookup failed")              // Unknown, not transient
	apierror.NewCode("timed out", apierror.CodeTimeout, true)
	apierror.Wrap("read body", apierror.CodeCommunication, true, err)

# Inspection

	if apierror.IsMissingRequiredField(err) { ... }
	switch apierror.CodeOf(err) { ... }

*Error implements Unwrap, so errors.Is and errors.As see the cause.
*/
package apierror
