package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/soliswatch/solis-agent/internal/service_registry"
	"github.com/soliswatch/solis-agent/internal/setup"
	"github.com/soliswatch/solis-agent/internal/utils"
	"github.com/soliswatch/solis-agent/pkg/file"
	"github.com/soliswatch/solis-agent/pkg/mqtt"
	"github.com/soliswatch/solis-agent/pkg/soliscloud"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the agent configuration file")
	validate := flag.Bool("validate", false, "validate API credentials, list account inverters and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging with JSON output
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	// Load configuration from file. Validation mode runs before inverters
	// are configured, so it loads with the relaxed setup rules.
	fileClient := file.NewFileService()
	var config *utils.Config
	var err error
	if *validate {
		config, err = utils.LoadSetupConfig(*configPath, fileClient)
	} else {
		config, err = utils.LoadConfig(*configPath, fileClient)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	api := soliscloud.NewClient(config.API.Key, config.API.Secret, config.API.BaseURL, logger)

	// One-shot setup validation mode: check credentials against the account
	// inverter list without starting any services.
	if *validate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		serials, err := setup.ValidateCredentials(ctx, api, logger)
		if err != nil {
			if errors.Is(err, setup.ErrInvalidAuth) {
				logger.Fatal().Err(err).Msg("Invalid API credentials")
			}
			logger.Fatal().Err(err).Msg("Failed to validate credentials")
		}

		logger.Info().Strs("serials", serials).Msg("Credentials validated successfully")
		return
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT client ID")

	// Initialize the shared MQTT connection
	mqttEnabled := config.Services.Publisher.Enabled || config.Services.Heartbeat.Enabled
	mqttClient := mqtt.NewMqttService(fileClient)
	if mqttEnabled {
		err = mqttClient.Initialize(
			config.MQTT.Broker,
			config.MQTT.ClientID,
			config.MQTT.Username,
			config.MQTT.Password,
			config.MQTT.CACertificate,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, api); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop some services")
	}
	if mqttEnabled {
		mqttClient.Disconnect(250)
	}
}
