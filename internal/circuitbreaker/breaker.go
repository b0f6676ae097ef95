package circuitbreaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrOpen is returned by Do when the breaker rejects the call.
var ErrOpen = errors.New("circuit breaker is open")

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	FailThreshold    int           `json:"fail_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	Timeout          time.Duration `json:"timeout"`
	// OnStateChange is called after every transition, outside the breaker lock.
	OnStateChange func(from, to State) `json:"-"`
}

type Breaker struct {
	state            atomic.Int32
	failures         atomic.Int32
	successes        atomic.Int32
	failThreshold    int
	successThreshold int
	timeout          time.Duration
	lastFailTime     atomic.Int64
	onStateChange    func(from, to State)
	mu               sync.Mutex
	metrics          *Metrics
}

type Metrics struct {
	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	rejected        atomic.Int64
	stateChanges    atomic.Int32
}

func New(config Config) *Breaker {
	b := &Breaker{
		failThreshold:    config.FailThreshold,
		successThreshold: config.SuccessThreshold,
		timeout:          config.Timeout,
		onStateChange:    config.OnStateChange,
		metrics:          &Metrics{},
	}
	b.state.Store(int32(StateClosed))
	return b
}

// Do runs fn when the breaker allows it and records the outcome.
// isFailure decides which errors count against the breaker; nil counts every error.
func (b *Breaker) Do(fn func() error, isFailure func(error) bool) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn()
	failed := err != nil
	if failed && isFailure != nil {
		failed = isFailure(err)
	}
	b.Record(!failed)
	return err
}

func (b *Breaker) Allow() bool {
	b.metrics.totalRequests.Add(1)

	switch State(b.state.Load()) {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		lastFail := time.Unix(0, b.lastFailTime.Load())
		if time.Since(lastFail) >= b.timeout {
			b.mu.Lock()
			b.successes.Store(0)
			b.transitionTo(StateHalfOpen)
			b.mu.Unlock()
			return true
		}
	}
	b.metrics.rejected.Add(1)
	return false
}

func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.successRequests.Add(1)
	} else {
		b.metrics.failedRequests.Add(1)
	}

	switch State(b.state.Load()) {
	case StateClosed:
		if success {
			b.failures.Store(0)
			return
		}
		if int(b.failures.Add(1)) >= b.failThreshold {
			b.lastFailTime.Store(time.Now().UnixNano())
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			b.lastFailTime.Store(time.Now().UnixNano())
			b.successes.Store(0)
			b.transitionTo(StateOpen)
			return
		}
		if int(b.successes.Add(1)) >= b.successThreshold {
			b.failures.Store(0)
			b.successes.Store(0)
			b.transitionTo(StateClosed)
		}
	}
}

// transitionTo must be called with mu held.
func (b *Breaker) transitionTo(newState State) {
	old := State(b.state.Swap(int32(newState)))
	if old == newState {
		return
	}
	b.metrics.stateChanges.Add(1)
	if b.onStateChange != nil {
		go b.onStateChange(old, newState)
	}
}

func (b *Breaker) State() State {
	return State(b.state.Load())
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures.Store(0)
	b.successes.Store(0)
	b.transitionTo(StateClosed)
}

func (b *Breaker) Failures() int {
	return int(b.failures.Load())
}

func (b *Breaker) Successes() int {
	return int(b.successes.Load())
}

func (b *Breaker) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   b.metrics.totalRequests.Load(),
		SuccessRequests: b.metrics.successRequests.Load(),
		FailedRequests:  b.metrics.failedRequests.Load(),
		Rejected:        b.metrics.rejected.Load(),
		StateChanges:    b.metrics.stateChanges.Load(),
		CurrentState:    b.State().String(),
	}
}

type MetricsSnapshot struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	Rejected        int64
	StateChanges    int32
	CurrentState    string
}
