package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"

	"github.com/soliswatch/solis-agent/internal/models"
	"github.com/soliswatch/solis-agent/pkg/mqtt"
)

// HeartbeatService publishes periodic agent liveness messages with process
// stats, so the broker side can tell a dead agent from a fleet-wide outage.
type HeartbeatService struct {
	topicPrefix string
	agentID     string
	interval    time.Duration
	qos         int
	mqttClient  mqtt.MQTTClient
	logger      zerolog.Logger

	startedAt time.Time
	proc      *process.Process

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHeartbeatService initializes a new HeartbeatService.
func NewHeartbeatService(topicPrefix, agentID string, interval time.Duration, qos int,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *HeartbeatService {

	return &HeartbeatService{
		topicPrefix: topicPrefix,
		agentID:     agentID,
		interval:    interval,
		qos:         qos,
		mqttClient:  mqttClient,
		logger:      logger,
	}
}

// Start launches the heartbeat loop in a separate goroutine.
func (h *HeartbeatService) Start() error {
	if h.ctx != nil {
		h.logger.Warn().Msg("HeartbeatService is already running")
		return errors.New("heartbeat service is already running")
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return fmt.Errorf("failed to open own process handle: %w", err)
	}
	h.proc = proc
	h.startedAt = time.Now()

	h.ctx, h.cancel = context.WithCancel(context.Background())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runHeartbeatLoop()
	}()

	h.logger.Info().Str("agent_id", h.agentID).Msg("HeartbeatService started successfully")
	return nil
}

// Stop gracefully stops the heartbeat service.
func (h *HeartbeatService) Stop() error {
	if h.ctx == nil {
		h.logger.Warn().Msg("HeartbeatService is not running")
		return errors.New("heartbeat service is not running")
	}

	h.cancel()
	h.wg.Wait()

	h.ctx = nil
	h.cancel = nil

	h.logger.Info().Msg("HeartbeatService stopped successfully")
	return nil
}

// runHeartbeatLoop continuously sends heartbeat messages at the specified interval.
func (h *HeartbeatService) runHeartbeatLoop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			heartbeat := models.Heartbeat{
				AgentID:       h.agentID,
				Timestamp:     time.Now(),
				Status:        models.StatusAlive,
				UptimeSeconds: time.Since(h.startedAt).Seconds(),
			}

			if memInfo, err := h.proc.MemoryInfo(); err == nil {
				heartbeat.MemoryRSSBytes = memInfo.RSS
			}

			payload, err := json.Marshal(heartbeat)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to serialize heartbeat message")
				continue
			}

			topic := fmt.Sprintf("%s/agent/heartbeat", h.topicPrefix)
			token := h.mqttClient.Publish(topic, byte(h.qos), false, payload)
			token.Wait()

			if err := token.Error(); err != nil {
				h.logger.Error().Err(err).Msg("Failed to publish heartbeat message")
			} else {
				h.logger.Debug().Msg("Heartbeat published successfully")
			}

		case <-h.ctx.Done():
			h.logger.Info().Msg("HeartbeatService stopping gracefully")
			return
		}
	}
}
