package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliswatch/solis-agent/pkg/file"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadConfig_Defaults checks defaults are applied to a minimal config.
func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
api:
  key: "key123"
  secret: "secret456"
inverters:
  serials:
    - "SN001"
`)

	config, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, DefaultPollIntervalSeconds, config.Services.Polling.Interval)
	assert.Equal(t, DefaultPollIntervalSeconds, config.Services.Publisher.Interval)
	assert.Equal(t, 60*time.Second, config.PollInterval())
	assert.Equal(t, "solis", config.MQTT.TopicPrefix)
}

// TestLoadConfig_FullConfig parses a complete configuration file.
func TestLoadConfig_FullConfig(t *testing.T) {
	path := writeConfig(t, `
api:
  key: "key123"
  secret: "secret456"
inverters:
  serials:
    - "SN001"
    - "SN002"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "solis-agent"
  topic_prefix: "pv"
  qos: 1
services:
  polling:
    interval: 120
  publisher:
    enabled: true
    interval: 60
  heartbeat:
    enabled: true
    interval: 30
`)

	config, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)

	assert.Equal(t, 120*time.Second, config.PollInterval())
	assert.Equal(t, 30*time.Second, config.HeartbeatInterval())
	assert.Equal(t, []string{"SN001", "SN002"}, config.Inverters.Serials)
	assert.Equal(t, "pv", config.MQTT.TopicPrefix)
	assert.True(t, config.Services.Publisher.Enabled)
}

// TestConfig_Validate covers the rejection rules.
func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing credentials",
			content: `
inverters:
  serials: ["SN001"]
`,
			wantErr: "api key and secret are required",
		},
		{
			name: "no serials",
			content: `
api: {key: "k", secret: "s"}
inverters:
  serials: []
`,
			wantErr: "at least one inverter serial",
		},
		{
			name: "too many serials",
			content: `
api: {key: "k", secret: "s"}
inverters:
  serials: ["S1", "S2", "S3", "S4", "S5", "S6"]
`,
			wantErr: "too many inverters configured",
		},
		{
			name: "interval below band",
			content: `
api: {key: "k", secret: "s"}
inverters:
  serials: ["SN001"]
services:
  polling:
    interval: 10
`,
			wantErr: "outside the supported band",
		},
		{
			name: "interval above band",
			content: `
api: {key: "k", secret: "s"}
inverters:
  serials: ["SN001"]
services:
  polling:
    interval: 600
`,
			wantErr: "outside the supported band",
		},
		{
			name: "publisher without broker",
			content: `
api: {key: "k", secret: "s"}
inverters:
  serials: ["SN001"]
services:
  publisher:
    enabled: true
`,
			wantErr: "mqtt broker is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := LoadConfig(path, file.NewFileService())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
