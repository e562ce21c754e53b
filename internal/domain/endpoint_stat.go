package domain

import "time"

// EndpointStat holds the request counters for one (endpoint, method) pair.
// SuccessCount+ErrorCount never exceeds Count.
type EndpointStat struct {
	ID           int64
	Endpoint     string
	Method       string
	Count        uint64
	SuccessCount uint64
	ErrorCount   uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatHandle identifies a stat record inside the registry that issued it.
type StatHandle int64

// StatCounter names one of the three counters of an EndpointStat.
type StatCounter string

const (
	CounterTotal   StatCounter = "count"
	CounterSuccess StatCounter = "success_count"
	CounterError   StatCounter = "error_count"
)

// Valid reports whether c is one of the known counters.
func (c StatCounter) Valid() bool {
	switch c {
	case CounterTotal, CounterSuccess, CounterError:
		return true
	}
	return false
}
