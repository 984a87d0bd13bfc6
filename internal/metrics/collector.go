package metrics

import (
	"time"

	"library-converter/internal/logging"
)

// ProgressProvider interface for collecting run progress
type ProgressProvider interface {
	Progress() Progress
}

// Progress holds a point-in-time view of the running batch
type Progress struct {
	Total       int
	Completed   int
	InputBytes  int64
	OutputBytes int64
	Busy        int
}

// SavedBytes returns the byte difference between inputs and accepted outputs.
func (p Progress) SavedBytes() int64 {
	return p.InputBytes - p.OutputBytes
}

// Collector periodically copies run progress into gauges
type Collector struct {
	provider ProgressProvider
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider ProgressProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop after one final collection
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			c.collect()
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	p := c.provider.Progress()

	RunAssetsTotal.Set(float64(p.Total))
	RunAssetsCompleted.Set(float64(p.Completed))
	RunSavedBytes.Set(float64(p.SavedBytes()))
	WorkersBusy.Set(float64(p.Busy))

	logging.Debug("Metrics collected: completed=%d/%d, busy=%d, saved=%d bytes",
		p.Completed, p.Total, p.Busy, p.SavedBytes())
}
