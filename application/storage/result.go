package storage

// ReadOutcome reports how a collection read was satisfied
type ReadOutcome int

const (
	// ReadAbsent means the key has never been written
	ReadAbsent ReadOutcome = iota
	// ReadLoaded means the primary value was valid and used directly
	ReadLoaded
	// ReadRecovered means the primary value was damaged and a shadow
	// snapshot was promoted in its place
	ReadRecovered
	// ReadUnrecoverable means the primary value was damaged and no usable
	// shadow existed; the caller received the empty default
	ReadUnrecoverable
)

// String renders the outcome for logs
func (o ReadOutcome) String() string {
	switch o {
	case ReadAbsent:
		return "absent"
	case ReadLoaded:
		return "loaded"
	case ReadRecovered:
		return "recovered"
	case ReadUnrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// Degraded reports whether the read returned anything other than the
// stored primary value
func (o ReadOutcome) Degraded() bool {
	return o == ReadRecovered || o == ReadUnrecoverable
}
