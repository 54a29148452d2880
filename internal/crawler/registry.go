package crawler

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	ErrDuplicateTopic = errors.New("duplicate topic")
	ErrUnknownTopic   = errors.New("unknown topic")
)

// Registry keeps crawlers in registration order, addressable by topic or category.
type Registry struct {
	crawlers []Crawler
	byKey    map[string]Crawler
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Crawler)}
}

// Register adds crawlers; a topic whose category is taken is rejected.
func (r *Registry) Register(crawlers ...Crawler) error {
	for _, c := range crawlers {
		cat := c.Info().Category()
		if _, ok := r.byKey[cat]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTopic, c.Info().Topic)
		}

		r.byKey[cat] = c
		r.crawlers = append(r.crawlers, c)
	}

	return nil
}

// Get looks a crawler up by topic or category name.
func (r *Registry) Get(name string) (Crawler, error) {
	c, ok := r.byKey[categoryOf(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, name)
	}

	return c, nil
}

// Select resolves names in order; no names means every crawler.
func (r *Registry) Select(names ...string) ([]Crawler, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	out := make([]Crawler, 0, len(names))

	for _, n := range names {
		c, err := r.Get(n)
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, nil
}

// All returns every crawler in registration order.
func (r *Registry) All() []Crawler {
	return append([]Crawler(nil), r.crawlers...)
}

// Topics lists the registered topic names.
func (r *Registry) Topics() []string {
	out := make([]string, len(r.crawlers))
	for i, c := range r.crawlers {
		out[i] = c.Info().Topic
	}

	return out
}

// Len returns the number of crawlers.
func (r *Registry) Len() int { return len(r.crawlers) }

func categoryOf(name string) string {
	return Info{Topic: name}.Category()
}
