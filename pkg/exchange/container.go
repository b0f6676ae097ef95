package exchange

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownExchange is returned by Container.Get for an exchange id that
// has no registered client.
var ErrUnknownExchange = errors.New("exchange not registered")

// Container holds the venue clients the service can answer for, keyed by
// exchange id. It is safe for concurrent use.
type Container struct {
	mu        sync.RWMutex
	exchanges map[string]Exchange
}

func NewContainer() *Container {
	return &Container{exchanges: make(map[string]Exchange)}
}

// Register stores ex under id, replacing any client already registered
// under the same id.
func (c *Container) Register(id string, ex Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[id] = ex
}

func (c *Container) Get(id string) (Exchange, error) {
	c.mu.RLock()
	ex, ok := c.exchanges[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExchange, id)
	}
	return ex, nil
}

func (c *Container) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.exchanges[id]
	return ok
}

// Names returns the registered exchange ids in sorted order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.exchanges))
	for id := range c.exchanges {
		names = append(names, id)
	}
	slices.Sort(names)
	return names
}

// Close closes every client and empties the container. Errors from
// individual clients are joined.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, ex := range c.exchanges {
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	clear(c.exchanges)
	return errors.Join(errs...)
}
