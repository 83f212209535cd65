package metrics

import (
	"time"

	"github.com/corvid-labs/doculex/pkg/index"
	"github.com/corvid-labs/doculex/pkg/store"
)

// Collector periodically refreshes the store/index size gauges, which
// need a walk over the store and index and are too costly to update
// inline on every request.
type Collector struct {
	store  *store.Store
	index  *index.Index
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over the server's
// shared store and index.
func NewCollector(s *store.Store, idx *index.Index) *Collector {
	return &Collector{
		store:  s,
		index:  idx,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	DocumentsTotal.Set(float64(c.store.DocumentCount()))
	IndexTokensTotal.Set(float64(c.index.TokenCount()))
}
