package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soliswatch/solis-agent/internal/models"
)

// TestHeartbeatService_StartStop exercises the service lifecycle.
func TestHeartbeatService_StartStop(t *testing.T) {
	client := new(mockMQTTClient)

	h := NewHeartbeatService("solis", "agent-1", time.Hour, 0, client, zerolog.Nop())

	require.NoError(t, h.Start())

	err := h.Start()
	require.Error(t, err)
	assert.Equal(t, "heartbeat service is already running", err.Error())

	require.NoError(t, h.Stop())

	err = h.Stop()
	require.Error(t, err)
	assert.Equal(t, "heartbeat service is not running", err.Error())
}

// TestHeartbeatService_PublishesHeartbeat verifies the published message
// carries the agent id and liveness status.
func TestHeartbeatService_PublishesHeartbeat(t *testing.T) {
	client := new(mockMQTTClient)

	var payload []byte
	client.On("Publish", "solis/agent/heartbeat", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			payload = args.Get(3).([]byte)
		}).
		Return(&fakeToken{})

	h := NewHeartbeatService("solis", "agent-1", 50*time.Millisecond, 1, client, zerolog.Nop())

	require.NoError(t, h.Start())
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, h.Stop())

	client.AssertExpectations(t)

	var heartbeat models.Heartbeat
	require.NoError(t, json.Unmarshal(payload, &heartbeat))
	assert.Equal(t, "agent-1", heartbeat.AgentID)
	assert.Equal(t, models.StatusAlive, heartbeat.Status)
	assert.GreaterOrEqual(t, heartbeat.UptimeSeconds, 0.0)
}
