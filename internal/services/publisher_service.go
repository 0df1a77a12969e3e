package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/soliswatch/solis-agent/internal/models"
	"github.com/soliswatch/solis-agent/internal/readings"
	"github.com/soliswatch/solis-agent/pkg/mqtt"
)

// FleetSource is the view of the polling coordinator the publisher consumes.
type FleetSource interface {
	Fleet() map[string]models.DeviceSnapshot
	LastUpdateOK() bool
}

// PublisherService periodically publishes typed inverter readings and
// availability to MQTT. An inverter is available only when the last polling
// cycle succeeded and a snapshot exists for it; everything else reports
// offline so consumers never act on stale data unknowingly.
type PublisherService struct {
	topicPrefix string
	interval    time.Duration
	qos         int
	serials     []string
	source      FleetSource
	mqttClient  mqtt.MQTTClient
	logger      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisherService initializes a new PublisherService.
func NewPublisherService(topicPrefix string, interval time.Duration, qos int, serials []string,
	source FleetSource, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *PublisherService {

	return &PublisherService{
		topicPrefix: topicPrefix,
		interval:    interval,
		qos:         qos,
		serials:     serials,
		source:      source,
		mqttClient:  mqttClient,
		logger:      logger,
	}
}

// Start launches the publishing loop in a separate goroutine.
func (s *PublisherService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("PublisherService is already running")
		return errors.New("publisher service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPublishLoop()
	}()

	s.logger.Info().Str("topic_prefix", s.topicPrefix).Msg("PublisherService started successfully")
	return nil
}

// Stop gracefully stops the publisher service.
func (s *PublisherService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("PublisherService is not running")
		return errors.New("publisher service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("PublisherService stopped successfully")
	return nil
}

func (s *PublisherService) runPublishLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.publishFleet()
		case <-s.ctx.Done():
			s.logger.Info().Msg("PublisherService stopping gracefully")
			return
		}
	}
}

// publishFleet publishes availability for every configured inverter and a
// reading payload for each available one.
func (s *PublisherService) publishFleet() {
	fleet := s.source.Fleet()
	updateOK := s.source.LastUpdateOK()

	for _, sn := range s.serials {
		snap, present := fleet[sn]
		available := updateOK && present

		if err := s.publishAvailability(sn, available); err != nil {
			s.logger.Error().Err(err).Str("sn", sn).Msg("Failed to publish availability")
			continue
		}

		if !available {
			continue
		}

		if err := s.publishReadings(sn, snap); err != nil {
			s.logger.Error().Err(err).Str("sn", sn).Msg("Failed to publish readings")
		}
	}
}

func (s *PublisherService) publishAvailability(sn string, available bool) error {
	payload := "offline"
	if available {
		payload = "online"
	}

	topic := fmt.Sprintf("%s/%s/availability", s.topicPrefix, sn)

	// Retained so consumers joining late see the current availability.
	token := s.mqttClient.Publish(topic, byte(s.qos), true, []byte(payload))
	token.Wait()
	return token.Error()
}

func (s *PublisherService) publishReadings(sn string, snap models.DeviceSnapshot) error {
	payload, err := json.Marshal(readings.FromSnapshot(sn, snap))
	if err != nil {
		return fmt.Errorf("failed to serialize readings: %w", err)
	}

	topic := fmt.Sprintf("%s/%s/state", s.topicPrefix, sn)

	token := s.mqttClient.Publish(topic, byte(s.qos), false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}

	s.logger.Debug().Str("sn", sn).Str("topic", topic).Msg("Readings published successfully")
	return nil
}
