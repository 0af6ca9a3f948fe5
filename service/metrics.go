package service

import (
	"sync"
	"time"
)

// MetricsCollector tracks counts and timings of registrar operations
type MetricsCollector struct {
	mu                    sync.RWMutex
	registrationStartTime time.Time
	registrationEndTime   time.Time
	registrationCount     int
	registrationTotalTime time.Duration

	tokenStartTime time.Time
	tokenEndTime   time.Time
	tokenCount     int

	rejectedCount int
	faultCount    int
}

// OperationMetrics contains timing information for an operation
type OperationMetrics struct {
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Count          int       `json:"count"`
	ProcessingTime int64     `json:"processing_time_ms"`
}

// MetricsResponse provides the metrics for all operations
type MetricsResponse struct {
	Registration OperationMetrics `json:"registration"`
	Tokens       OperationMetrics `json:"tokens"`
	Rejected     int              `json:"rejected"`
	Faults       int              `json:"faults"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordTokenIssued counts one issued admission token
func (mc *MetricsCollector) RecordTokenIssued() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.tokenCount == 0 {
		mc.tokenStartTime = now
	}
	mc.tokenEndTime = now
	mc.tokenCount++
}

// RecordRegistration counts one successful registration that took duration
func (mc *MetricsCollector) RecordRegistration(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if mc.registrationCount == 0 {
		mc.registrationStartTime = now.Add(-duration)
	}
	mc.registrationEndTime = now
	mc.registrationCount++
	mc.registrationTotalTime += duration
}

func (mc *MetricsCollector) RecordRejection() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.rejectedCount++
}

func (mc *MetricsCollector) RecordFault() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.faultCount++
}

// GetMetrics returns current metrics for all operations
func (mc *MetricsCollector) GetMetrics() MetricsResponse {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return MetricsResponse{
		Registration: OperationMetrics{
			StartTime:      mc.registrationStartTime,
			EndTime:        mc.registrationEndTime,
			Count:          mc.registrationCount,
			ProcessingTime: mc.registrationTotalTime.Milliseconds(),
		},
		Tokens: OperationMetrics{
			StartTime: mc.tokenStartTime,
			EndTime:   mc.tokenEndTime,
			Count:     mc.tokenCount,
		},
		Rejected: mc.rejectedCount,
		Faults:   mc.faultCount,
	}
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.registrationStartTime = time.Time{}
	mc.registrationEndTime = time.Time{}
	mc.registrationCount = 0
	mc.registrationTotalTime = 0

	mc.tokenStartTime = time.Time{}
	mc.tokenEndTime = time.Time{}
	mc.tokenCount = 0

	mc.rejectedCount = 0
	mc.faultCount = 0
}
