package service

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector collects turn and tool metrics. It is shared by every
// session of a process.
type MetricsCollector struct {
	totals TurnMetrics
	tools  map[string]*ToolMetrics
	mu     sync.RWMutex
}

// TurnMetrics holds process-level turn counters.
type TurnMetrics struct {
	StartTime     time.Time     `json:"start_time"`
	Turns         int           `json:"turns"`
	Answers       int           `json:"answers"`
	ToolCalls     int           `json:"tool_calls"`
	Errors        int           `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// ToolMetrics holds per-tool counters.
type ToolMetrics struct {
	Name          string        `json:"name"`
	Invocations   int           `json:"invocations"`
	Errors        int           `json:"errors"`
	Rows          int           `json:"rows"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	LastUsed      time.Time     `json:"last_used"`
}

// TurnSample describes one finished turn.
type TurnSample struct {
	Tool     string // empty for direct answers
	IsError  bool
	Rows     int
	Duration time.Duration
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		totals: TurnMetrics{StartTime: time.Now()},
		tools:  make(map[string]*ToolMetrics),
	}
}

// RecordTurn adds one turn. A nil collector is a no-op.
func (m *MetricsCollector) RecordTurn(s TurnSample) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totals.Turns++
	m.totals.TotalDuration += s.Duration
	m.totals.AvgDuration = m.totals.TotalDuration / time.Duration(m.totals.Turns)
	if s.IsError {
		m.totals.Errors++
	}
	if s.Tool == "" {
		m.totals.Answers++
		return
	}
	m.totals.ToolCalls++
	m.updateToolMetrics(s)
}

// updateToolMetrics updates tool-level metrics.
func (m *MetricsCollector) updateToolMetrics(s TurnSample) {
	tm, ok := m.tools[s.Tool]
	if !ok {
		tm = &ToolMetrics{Name: s.Tool}
		m.tools[s.Tool] = tm
	}

	tm.Invocations++
	tm.Rows += s.Rows
	tm.TotalDuration += s.Duration
	tm.AvgDuration = tm.TotalDuration / time.Duration(tm.Invocations)
	tm.LastUsed = time.Now()
	if s.IsError {
		tm.Errors++
	}
}

// GetTurnMetrics returns the process-level counters.
func (m *MetricsCollector) GetTurnMetrics() TurnMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totals
}

// GetToolMetrics returns a copy of the per-tool counters sorted by name.
func (m *MetricsCollector) GetToolMetrics() []ToolMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ToolMetrics, 0, len(m.tools))
	for _, tm := range m.tools {
		result = append(result, *tm)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Reset clears all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totals = TurnMetrics{StartTime: time.Now()}
	m.tools = make(map[string]*ToolMetrics)
}
