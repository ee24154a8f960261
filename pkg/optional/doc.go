/*
Package optional provides a presence-aware wrapper for record fields.

API records distinguish between a field that was never set and a field set
to its zero value: an unset optional property is omitted from the wire
entirely, while a set one is always emitted, even when it holds "" or 0.
Value[T] carries that distinction explicitly instead of relying on nil
pointers.

# Usage

	ttl := optional.Of(30 * time.Second)
	if d, ok := ttl.Get(); ok {
		fmt.Println("expires after", d)
	}

	var desc optional.Value[string] // unset
	fmt.Println(desc.OrElse("<none>"))
*/
package optional
