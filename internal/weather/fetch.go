package weather

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-forecast/internal/geocode"
)

// State is the lifecycle position of a Fetch.
type State int

const (
	StateUnfetched State = iota
	StateFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnfetched:
		return "unfetched"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetch is a single forecast request for one piece of location text. It
// moves Unfetched -> Fetching -> Ready|Failed exactly once; a retry needs a
// new Fetch.
type Fetch struct {
	// ID correlates the log lines of one invocation.
	ID          string
	Query       geocode.Query
	DisplayName string

	mu     sync.Mutex
	state  State
	result *ForecastResult
	err    error
}

// NewFetch resolves cityText and returns an unfetched request for it.
func NewFetch(cityText string) *Fetch {
	return &Fetch{
		ID:          uuid.NewString(),
		Query:       geocode.Resolve(cityText),
		DisplayName: strings.TrimSpace(cityText),
	}
}

// State reports the current lifecycle state.
func (f *Fetch) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the outcome once the fetch is Ready or Failed. Before that
// both values are nil.
func (f *Fetch) Result() (*ForecastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *Fetch) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateUnfetched {
		return ErrFetchStarted
	}
	f.state = StateFetching
	return nil
}

func (f *Fetch) complete(result *ForecastResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.err = err
		return
	}
	f.state = StateReady
	f.result = result
}
