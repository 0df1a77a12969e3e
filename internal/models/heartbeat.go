package models

import "time"

// StatusAlive is the status reported in every heartbeat message.
const StatusAlive = "alive"

// Heartbeat is the agent liveness message published over MQTT.
type Heartbeat struct {
	AgentID        string    `json:"agent_id"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	MemoryRSSBytes uint64    `json:"memory_rss_bytes"`
}
