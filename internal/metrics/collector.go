package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in binding metrics with no external dependencies.
// A nil *Collector is valid and records nothing.
type Collector struct {
	bindMetrics       *BindMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// BindMetrics tracks binder activity
type BindMetrics struct {
	// Passes
	Injections  int64 `json:"injections"`
	Extractions int64 `json:"extractions"`
	BindErrors  int64 `json:"bind_errors"`

	// Tree work
	NodesVisited  int64 `json:"nodes_visited"`
	ClonesCreated int64 `json:"clones_created"`
	MaxStackDepth int64 `json:"max_stack_depth"`
	HiddenNodes   int64 `json:"hidden_nodes"`

	// Conditional expressions
	ExpressionsEvaluated int64 `json:"expressions_evaluated"`
	ExpressionWarnings   int64 `json:"expression_warnings"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		bindMetrics:       &BindMetrics{StartTime: now},
		operationCounters: make(map[string]*int64),
		startTime:         now,
	}
}

// IncrementInjection records one Inject call
func (c *Collector) IncrementInjection() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.Injections, 1)
}

// IncrementExtraction records one Extract call
func (c *Collector) IncrementExtraction() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.Extractions, 1)
}

// IncrementBindError records a pass that returned an error
func (c *Collector) IncrementBindError() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.BindErrors, 1)
}

// IncrementNodesVisited records visited template nodes
func (c *Collector) IncrementNodesVisited(n int64) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.NodesVisited, n)
}

// IncrementClonesCreated records cloned item templates
func (c *Collector) IncrementClonesCreated(n int64) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.ClonesCreated, n)
}

// IncrementHiddenNodes records nodes hidden by data-if
func (c *Collector) IncrementHiddenNodes() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.HiddenNodes, 1)
}

// ObserveStackDepth updates the deepest work stack seen
func (c *Collector) ObserveStackDepth(depth int64) {
	if c == nil {
		return
	}
	for {
		max := atomic.LoadInt64(&c.bindMetrics.MaxStackDepth)
		if depth <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.bindMetrics.MaxStackDepth, max, depth) {
			break
		}
	}
}

// IncrementExpressionEvaluated records a conditional expression evaluation
func (c *Collector) IncrementExpressionEvaluated() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.ExpressionsEvaluated, 1)
}

// IncrementExpressionWarning records an expression rejected as malformed
func (c *Collector) IncrementExpressionWarning() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.bindMetrics.ExpressionWarnings, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns a snapshot of the current metrics
func (c *Collector) GetMetrics() BindMetrics {
	if c == nil {
		return BindMetrics{}
	}
	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	return BindMetrics{
		Injections:           atomic.LoadInt64(&c.bindMetrics.Injections),
		Extractions:          atomic.LoadInt64(&c.bindMetrics.Extractions),
		BindErrors:           atomic.LoadInt64(&c.bindMetrics.BindErrors),
		NodesVisited:         atomic.LoadInt64(&c.bindMetrics.NodesVisited),
		ClonesCreated:        atomic.LoadInt64(&c.bindMetrics.ClonesCreated),
		MaxStackDepth:        atomic.LoadInt64(&c.bindMetrics.MaxStackDepth),
		HiddenNodes:          atomic.LoadInt64(&c.bindMetrics.HiddenNodes),
		ExpressionsEvaluated: atomic.LoadInt64(&c.bindMetrics.ExpressionsEvaluated),
		ExpressionWarnings:   atomic.LoadInt64(&c.bindMetrics.ExpressionWarnings),
		StartTime:            startTime,
		Uptime:               time.Since(startTime),
	}
}

// GetCustomCounters returns a copy of all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	result := make(map[string]int64)
	if c == nil {
		return result
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// CounterNames returns the custom counter names in sorted order
func (c *Collector) CounterNames() []string {
	counters := c.GetCustomCounters()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.bindMetrics.Injections, 0)
	atomic.StoreInt64(&c.bindMetrics.Extractions, 0)
	atomic.StoreInt64(&c.bindMetrics.BindErrors, 0)
	atomic.StoreInt64(&c.bindMetrics.NodesVisited, 0)
	atomic.StoreInt64(&c.bindMetrics.ClonesCreated, 0)
	atomic.StoreInt64(&c.bindMetrics.MaxStackDepth, 0)
	atomic.StoreInt64(&c.bindMetrics.HiddenNodes, 0)
	atomic.StoreInt64(&c.bindMetrics.ExpressionsEvaluated, 0)
	atomic.StoreInt64(&c.bindMetrics.ExpressionWarnings, 0)

	c.operationCounters = make(map[string]*int64)

	c.startTime = time.Now()
	c.bindMetrics.StartTime = c.startTime
}

// GetWarningRate returns the percentage of evaluated expressions rejected as malformed
func (c *Collector) GetWarningRate() float64 {
	if c == nil {
		return 0.0
	}
	evaluated := atomic.LoadInt64(&c.bindMetrics.ExpressionsEvaluated)
	warnings := atomic.LoadInt64(&c.bindMetrics.ExpressionWarnings)

	if evaluated == 0 {
		return 0.0
	}

	return float64(warnings) / float64(evaluated) * 100.0
}
