package dashboard

import (
	"math"

	"github.com/sekai-set-on/web-portal/gateway"
)

// Status is the load state of one resource. A resource is in exactly one status.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Resource pairs a value with its load status. Err is set only in StatusError; Value keeps
// the last successfully loaded data across later loads and failures.
type Resource[T any] struct {
	Status Status
	Value  T
	Err    error
}

func (r Resource[T]) loading() Resource[T] {
	return Resource[T]{Status: StatusLoading, Value: r.Value}
}

func (r Resource[T]) failed(err error) Resource[T] {
	return Resource[T]{Status: StatusError, Value: r.Value, Err: err}
}

func ready[T any](v T) Resource[T] {
	return Resource[T]{Status: StatusReady, Value: v}
}

// Phase tracks whether the session behind the aggregator is still usable
type Phase int

const (
	PhaseActive Phase = iota
	// PhaseEnded follows logout or account deletion; the caller should leave the dashboard
	PhaseEnded
)

// UsageStats is derived from the user projection on every load
type UsageStats struct {
	CurrentMonth        int
	Limit               int
	SuccessfulCalls     int
	ErrorRate           float64
	AverageResponseTime float64
	SuccessRate         float64
}

// LimitUsed is the share of the monthly limit consumed, in percent, capped at 100
func (u UsageStats) LimitUsed() float64 {
	if u.Limit <= 0 {
		return 0
	}
	return math.Min(100, float64(u.CurrentMonth)*100/float64(u.Limit))
}

// ComputeUsage derives usage statistics from a user. Successful calls are
// round(total × success rate / 100).
func ComputeUsage(u gateway.User, monthlyLimit int) UsageStats {
	return UsageStats{
		CurrentMonth:        u.TotalAPIUsage,
		Limit:               monthlyLimit,
		SuccessfulCalls:     int(math.Round(float64(u.TotalAPIUsage) * (u.AverageSuccessRate / 100))),
		ErrorRate:           u.AverageErrorRate,
		AverageResponseTime: u.AverageResponseTime,
		SuccessRate:         u.AverageSuccessRate,
	}
}

// View is what the dashboard renders
type View struct {
	User    gateway.User
	APIKeys []gateway.APIKey
	Usage   UsageStats
}

func (v View) clone() View {
	v.APIKeys = append([]gateway.APIKey(nil), v.APIKeys...)
	return v
}

// Snapshot is a consistent copy of the aggregator state
type Snapshot struct {
	Phase        Phase
	Dashboard    Resource[View]
	UsageLogs    Resource[*gateway.UsageReport]
	CreatingKey  bool
	DeletingKeys map[string]bool
}

// Deleting reports whether a delete of identifier is in flight
func (s Snapshot) Deleting(identifier string) bool {
	return s.DeletingKeys[identifier]
}
