package reactive

import "time"

// EffectRun describes one completed effect execution.
type EffectRun struct {
	ID       uint64
	Name     string
	Duration time.Duration
	Deps     int
	Panicked bool
}

// TriggerInfo describes one trigger call that reached at least one Dep map.
type TriggerInfo struct {
	Target string
	Key    Key
	Op     OpKind
	// Ran counts effects executed synchronously.
	Ran int
	// Scheduled counts effects handed to their scheduler.
	Scheduled int
}

// FlushInfo describes one JobQueue flush.
type FlushInfo struct {
	Jobs     int
	Dropped  int
	Duration time.Duration
	Panicked bool
}

// Observer receives instrumentation events from a Runtime.
// Implementations must not read or write reactive state.
type Observer interface {
	EffectRan(EffectRun)
	Triggered(TriggerInfo)
	Flushed(FlushInfo)
}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) EffectRan(r EffectRun) {
	for _, o := range m {
		o.EffectRan(r)
	}
}

func (m multiObserver) Triggered(t TriggerInfo) {
	for _, o := range m {
		o.Triggered(t)
	}
}

func (m multiObserver) Flushed(f FlushInfo) {
	for _, o := range m {
		o.Flushed(f)
	}
}
