package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"gioui.org/app"
	"github.com/google/uuid"
	"github.com/roam-ai/whileusing-batch-listener/internal/collectors"
	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/internal/observability"
	"github.com/roam-ai/whileusing-batch-listener/internal/permissions"
	"github.com/roam-ai/whileusing-batch-listener/internal/receivers"
	"github.com/roam-ai/whileusing-batch-listener/internal/service_registry"
	"github.com/roam-ai/whileusing-batch-listener/internal/services"
	"github.com/roam-ai/whileusing-batch-listener/internal/state_managers"
	"github.com/roam-ai/whileusing-batch-listener/internal/ui"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/roam-ai/whileusing-batch-listener/pkg/file"
	"github.com/roam-ai/whileusing-batch-listener/pkg/identity"
	"github.com/roam-ai/whileusing-batch-listener/pkg/location"
	"github.com/roam-ai/whileusing-batch-listener/pkg/mqtt"
	"github.com/roam-ai/whileusing-batch-listener/pkg/sdk"
	"github.com/rs/zerolog"
)

func main() {
	fileClient := file.NewFileService()

	// Secrets may come from a dotenv file next to the binary
	if err := utils.LoadEnvFile(utils.DefaultEnvFile, fileClient); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", utils.DefaultEnvFile, err)
	}

	config, err := utils.LoadConfig(utils.ConfigPath(), fileClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(config.Logging.Level, os.Stdout)

	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}
	deviceID, err := deviceInfo.EnsureDeviceID()
	if err != nil {
		logger.Warn().Err(err).Msg("Device ID could not be persisted")
	}
	logger = logger.With().Str("device_id", deviceID).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The MQTT connection is shared by the remote SDK and the event receiver
	var mqttClient mqtt.MQTTClient
	if config.SDK.Driver == utils.DriverRemote || config.Receiver.MQTTEnabled {
		config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

		mqttService := mqtt.NewMqttService(fileClient)
		if err := mqttService.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate, config.MQTT.ConnectTimeout); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		mqttClient = mqttService
	}

	binding, err := newBinding(config, mqttClient, deviceID, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create SDK binding")
	}

	receiver := receivers.MultiReceiver{receivers.NewLogReceiver(logger)}
	if config.Receiver.MQTTEnabled {
		receiver = append(receiver, receivers.NewMQTTReceiver(mqttClient, config.Receiver.Topic, config.MQTT.QOS, config.MQTT.ConnectTimeout, logger))
	}

	if err := services.InitializeSDK(ctx, binding, config.SDK.LicenseKey, config.SDK.VersionConstraint, receiver, logger); err != nil {
		logger.Fatal().Err(err).Msg("SDK bootstrap failed")
	}

	stdin := bufio.NewReader(os.Stdin)

	// A single worker keeps store writes and clears in submission order
	eventQueue := utils.NewWorkerPool(1, 64)
	store := state_managers.NewReadingStateManager(logger)
	listener := services.NewLocationListenerService(constants.LocationChannel, sdk.NewSubscriber(binding), store, eventQueue, logger)
	controller := services.NewTrackingService(binding, newRequester(config, runtime.GOOS, stdin, os.Stdout, logger), listener, store, eventQueue,
		services.TrackingOptions{
			BatchEnabled:      config.Tracking.BatchEnabled,
			BatchInterval:     config.Tracking.BatchInterval,
			AllowMockLocation: config.Tracking.AllowMockLocation,
			Notification:      sdk.ForegroundNotification(config.Tracking.ForegroundNotification),
			RequireGrant:      config.Permissions.RequireGrant,
			Platform:          runtime.GOOS,
		}, logger)

	serviceRegistry := service_registry.NewServiceRegistry(logger)
	if err := serviceRegistry.RegisterServices(config, listener); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	shutdown := func() {
		logger.Info().Msg("Shutting down gracefully...")
		_ = serviceRegistry.StopServices()
		eventQueue.Shutdown()
		if err := binding.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close SDK")
		}
		if mqttClient != nil && config.SDK.Driver != utils.DriverRemote {
			mqttClient.Disconnect(250)
		}
	}

	if config.UI.Mode == utils.UIModeConsole {
		err := ui.NewConsole(stdin, os.Stdout, controller, store, logger).Run(ctx)
		shutdown()
		if err != nil {
			logger.Error().Err(err).Msg("Console exited with error")
			os.Exit(1)
		}
		return
	}

	shell := ui.NewShell(config.UI.Title, controller, store, logger)
	go func() {
		err := shell.Run(ctx)
		shutdown()
		if err != nil {
			logger.Error().Err(err).Msg("Window closed with error")
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

// newBinding creates the SDK binding selected by sdk.driver.
func newBinding(config *utils.Config, mqttClient mqtt.MQTTClient, deviceID string, logger zerolog.Logger) (sdk.SDK, error) {
	switch config.SDK.Driver {
	case utils.DriverRemote:
		return sdk.NewRemoteSDK(mqttClient, config.MQTT.TopicPrefix, config.MQTT.QOS, config.MQTT.ConnectTimeout, logger), nil
	case utils.DriverLocal:
		provider, err := newProvider(config)
		if err != nil {
			return nil, err
		}
		return sdk.NewLocalSDK(provider, collectors.NewDefaultRegistry(logger), deviceID, config.SDK.PollInterval, logger), nil
	default:
		return nil, fmt.Errorf("unknown sdk driver %q", config.SDK.Driver)
	}
}

// newProvider creates the location provider used by the local driver.
func newProvider(config *utils.Config) (location.Provider, error) {
	switch config.Location.Provider {
	case utils.ProviderSensor:
		return location.NewDeviceSensorProvider(config.Location.GPSDevicePort, config.Location.GPSDeviceBaudRate), nil
	case utils.ProviderGoogle:
		return location.NewGoogleGeolocationProvider(config.Location.MapsAPIKey, config.Location.ModemIndex)
	case utils.ProviderMock:
		return location.NewMockProvider(config.Location.MockLatitude, config.Location.MockLongitude, config.Location.MockAccuracy), nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", config.Location.Provider)
	}
}

// newRequester prompts on the terminal when configured, otherwise answers
// from the configured grants on platforms with runtime permissions. Either way
// every outcome is logged and counted.
func newRequester(config *utils.Config, platform string, stdin *bufio.Reader, out io.Writer, logger zerolog.Logger) permissions.Requester {
	if config.Permissions.Prompt {
		return permissions.NewPromptingRequester(platform, permissions.NewPromptRequester(stdin, out), logger)
	}

	grants := make([]permissions.Permission, 0, len(config.Permissions.Grants))
	for _, g := range config.Permissions.Grants {
		grants = append(grants, permissions.Permission(g))
	}
	return permissions.NewPlatformRequester(platform, permissions.NewPolicyRequester(grants), logger)
}
