/*
Package storage provides a BoltDB-backed archive of API records.

The archive keeps payloads that were captured from the cluster management
API (health reports, service descriptions, event pages and so on) so they
can be inspected and replayed later. Every payload is decoded and
validated on the way in and stored in canonical form: unknown properties
dropped, optional properties that were null removed, field order fixed.
Reads decode the stored bytes again, so a record that comes out of the
archive is always a valid typed value.

# Architecture

	┌──────────────────── RECORD ARCHIVE ─────────────────────┐
	│                                                          │
	│  BoltStore                                               │
	│    - File: <dataDir>/fabricapi.db                        │
	│    - One bucket per registered type name                 │
	│    - Keys: caller supplied, or a random UUID             │
	│                                                          │
	│  Put:  payload ─▶ Type.Decode ─▶ Type.Encode ─▶ bucket   │
	│  Get:  bucket ─▶ Type.Decode ─▶ Entry{Payload, Value}    │
	│                                                          │
	└──────────────────────────────────────────────────────────┘

Type names come from a model.Registry, normally model.Types:

	store, err := storage.NewBoltStore(dataDir, model.Types)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Put("health-event", "", body)
	fmt.Println(entry.Key)

# Transactions

Writes go through db.Update and are serialized by bbolt; reads use
db.View and run concurrently. Byte slices returned by bbolt are only
valid inside the transaction, so Get and List copy them out.

# Errors

Get on a missing key returns an *apierror.Error with CodeNotFound. An
unregistered type name is also CodeNotFound. Payloads that fail to decode
return the codec error unchanged.

# Metrics

Every operation increments
fabricapi_archive_records_total{operation, result}.
*/
package storage
