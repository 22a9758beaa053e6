package monitoring

import (
	"testing"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	// Check if our metric is present
	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}

	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_Add(t *testing.T) {
	m := NewMonitor()
	m.Add("turns_total", 1)
	m.Add("turns_total", 2)

	value, exists := m.GetMetric("turns_total")
	if !exists {
		t.Fatalf("Expected 'turns_total' to be present in metrics, but it was not")
	}
	if value != 3.0 {
		t.Errorf("Expected 'turns_total' to be 3, but got %v", value)
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	m.Reset()

	metrics := m.GetMetrics()

	_, exists := metrics["test_metric"]
	if exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}

	// Uptime is added on every GetMetrics call
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}
