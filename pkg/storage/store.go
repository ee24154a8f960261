package storage

// Entry is one archived record. Payload holds the canonical JSON encoding
// and Value the decoded record.
type Entry struct {
	Type    string
	Key     string
	Payload []byte
	Value   any
}

// Store defines the interface for the record archive
type Store interface {
	// Put validates payload as a record of the named type and stores its
	// canonical encoding under key. An empty key is replaced by a new
	// random one.
	Put(typeName, key string, payload []byte) (Entry, error)
	Get(typeName, key string) (Entry, error)
	List(typeName string) ([]Entry, error)
	Delete(typeName, key string) error

	// Utility
	Close() error
}
