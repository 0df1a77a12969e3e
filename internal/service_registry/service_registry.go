package service_registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/soliswatch/solis-agent/internal/registry"
	"github.com/soliswatch/solis-agent/internal/services"
	"github.com/soliswatch/solis-agent/internal/utils"
	"github.com/soliswatch/solis-agent/pkg/mqtt"
	"github.com/soliswatch/solis-agent/pkg/soliscloud"
)

// ServiceRegistry manages the lifecycle of the agent's services.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		mqttClient: mqttClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers services based on configuration.
// The polling coordinator always runs; the MQTT-facing services are optional.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, api soliscloud.API) error {
	poller := services.NewPollingService(
		config.Inverters.Serials,
		config.PollInterval(),
		api,
		sr.Logger,
	)
	sr.RegisterService("polling", poller)

	if config.Services.Publisher.Enabled {
		sr.RegisterService("publisher", services.NewPublisherService(
			config.MQTT.TopicPrefix,
			config.PublishInterval(),
			config.MQTT.QOS,
			config.Inverters.Serials,
			poller,
			sr.mqttClient,
			sr.Logger,
		))
	}

	if config.Services.Heartbeat.Enabled {
		sr.RegisterService("heartbeat", services.NewHeartbeatService(
			config.MQTT.TopicPrefix,
			config.MQTT.ClientID,
			config.HeartbeatInterval(),
			config.MQTT.QOS,
			sr.mqttClient,
			sr.Logger,
		))
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", sr.serviceKeys)
	return nil
}
