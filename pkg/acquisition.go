package fadc

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	DefaultPollInterval  = 10 * time.Millisecond
	DefaultUnitBytes     = 1024
	DefaultProgressEvery = 1000
)

// ByteSource is the transport to the module. Available reports how many
// units are ready; Read fills buf with exactly that many units.
type ByteSource interface {
	Available() (uint32, error)
	Read(units uint32, buf []byte) error
}

// EventSink receives every decoded event, in decode order, from the
// acquisition goroutine.
type EventSink interface {
	Accept(EventRecord) error
}

type EventSinkFunc func(EventRecord) error

func (f EventSinkFunc) Accept(event EventRecord) error {
	return f(event)
}

// StopCondition ends a run after a number of events or after a duration.
// Exactly one of them must be set.
type StopCondition struct {
	Events   int64
	Duration time.Duration
}

func (c StopCondition) Validate() error {
	if c.Events < 0 {
		return &ConfigError{Field: "events", Reason: "must not be negative"}
	}
	if c.Duration < 0 {
		return &ConfigError{Field: "duration", Reason: "must not be negative"}
	}
	if (c.Events > 0) == (c.Duration > 0) {
		return &ConfigError{Field: "run condition", Reason: "exactly one of event count and duration must be given"}
	}
	return nil
}

// RunContext carries the state of one acquisition run. Stop may be called
// from any goroutine; everything else belongs to the acquisition goroutine.
type RunContext struct {
	Condition     StopCondition
	Stats         *RunStatistics
	PollInterval  time.Duration
	UnitBytes     int
	ProgressEvery int64
	Verbosity     int
	Metrics       *Metrics

	stopped atomic.Bool
	now     func() time.Time
	sleep   func(time.Duration)
}

func NewRunContext(condition StopCondition) (*RunContext, error) {
	if err := condition.Validate(); err != nil {
		return nil, err
	}
	return &RunContext{
		Condition:     condition,
		Stats:         NewRunStatistics(),
		PollInterval:  DefaultPollInterval,
		UnitBytes:     DefaultUnitBytes,
		ProgressEvery: DefaultProgressEvery,
		now:           time.Now,
		sleep:         time.Sleep,
	}, nil
}

// Stop asks the run to finish. Packets already being decoded are completed.
func (r *RunContext) Stop() {
	r.stopped.Store(true)
}

func (r *RunContext) Stopped() bool {
	return r.stopped.Load()
}

// Acquire polls source until the stop condition is met, the run is stopped,
// or the transport fails. Every decoded event goes to sink and to the run
// statistics. A summary is returned in all cases; the error is non-nil only
// for transport or sink failures.
func Acquire(run *RunContext, source ByteSource, sink EventSink) (RunSummary, error) {
	if run.UnitBytes <= 0 {
		return RunSummary{}, &ConfigError{Field: "unit_bytes", Reason: "must be positive"}
	}
	if run.Stats == nil {
		run.Stats = NewRunStatistics()
	}

	start := run.now()
	var (
		buffer       []byte
		events       int64
		bytesRead    int64
		decodeErrors int64
		reason       StopReason
		runErr       error
	)

	targetReached := func() bool {
		return run.Condition.Events > 0 && events >= run.Condition.Events
	}
	durationReached := func() bool {
		return run.Condition.Duration > 0 && run.now().Sub(start) >= run.Condition.Duration
	}

poll:
	for {
		switch {
		case run.Stopped():
			reason = StopRequested
			break poll
		case targetReached():
			reason = StopTargetEvents
			break poll
		case durationReached():
			reason = StopDuration
			break poll
		}

		units, err := source.Available()
		if err != nil {
			runErr = &TransportError{Op: "poll", Err: err}
			break poll
		}
		if units == 0 {
			if run.Metrics != nil {
				run.Metrics.EmptyPolls.Inc()
			}
			run.sleep(run.PollInterval)
			continue
		}

		size := int(units) * run.UnitBytes
		buffer = growBuffer(buffer, size)
		frame := buffer[:size]
		if err := source.Read(units, frame); err != nil {
			runErr = &TransportError{Op: "read", Err: err}
			break poll
		}
		bytesRead += int64(size)
		if run.Metrics != nil {
			run.Metrics.BytesRead.Add(float64(size))
		}

		offset := 0
		for offset < size {
			if run.Stopped() || targetReached() {
				break
			}
			event, err := DecodePacket(frame, offset)
			if err != nil {
				if isPadding(frame[offset:]) {
					break
				}
				decodeErrors++
				if run.Metrics != nil {
					run.Metrics.DecodeErrors.Inc()
				}
				if run.Verbosity > 0 {
					message := fmt.Errorf("dropping %d bytes of frame: %w", size-offset, err)
					logger.Error(message.Error())
				}
				break
			}
			if err := sink.Accept(event); err != nil {
				runErr = fmt.Errorf("error storing event %d: %w", event.TriggerNumber, err)
				break poll
			}
			run.Stats.Record(event.TriggerType, event.TriggerPattern)
			events++
			if run.Metrics != nil {
				run.Metrics.Events.Inc()
			}
			if run.ProgressEvery > 0 && events%run.ProgressEvery == 0 {
				message := fmt.Sprintf("Processing event: %d... (%s)", events, run.now().Format(time.DateTime))
				logger.Info(message, "acquisition")
			}
			offset += PacketBytes(event.DataLength)
			if durationReached() {
				break
			}
		}
	}
	if runErr != nil {
		reason = StopError
	}

	end := run.now()
	summary := run.Stats.Summary()
	summary.Start = start
	summary.End = end
	summary.Elapsed = end.Sub(start).Seconds()
	summary.TotalEvents = events
	if summary.Elapsed > 0 {
		summary.Rate = float64(events) / summary.Elapsed
	}
	summary.BytesRead = bytesRead
	summary.DecodeErrors = decodeErrors
	summary.StopReason = reason
	if run.Metrics != nil {
		run.Metrics.EventRate.Set(summary.Rate)
	}
	return summary, runErr
}

// growBuffer returns a buffer of at least size bytes, reusing buf when it is
// large enough. It grows by at least a factor of two.
func growBuffer(buf []byte, size int) []byte {
	if cap(buf) >= size {
		return buf[:cap(buf)]
	}
	newCap := 2 * cap(buf)
	if newCap < size {
		newCap = size
	}
	return make([]byte, newCap)
}

// isPadding reports whether the tail of a frame is the zero fill the module
// appends to complete its last unit.
func isPadding(tail []byte) bool {
	for _, b := range tail {
		if b != 0 {
			return false
		}
	}
	return true
}
