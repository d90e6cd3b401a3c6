package service_registry

import (
	"errors"
	"fmt"

	"github.com/roam-ai/whileusing-batch-listener/internal/registry"
	"github.com/roam-ai/whileusing-batch-listener/internal/services"
	"github.com/roam-ai/whileusing-batch-listener/internal/utils"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of the tracker's background services.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes an empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
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

// Names returns the registered service names in start order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
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

// RegisterServices registers the enabled services. The metrics endpoint comes
// up before the listener so the first readings are already counted.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, listener *services.LocationListenerService) error {
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "metrics",
			enabled: config.Metrics.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewMetricsService(config.Metrics.Addr, nil, sr.Logger), nil
			},
		},
		{
			name:    "listener",
			enabled: listener != nil,
			constructor: func() (registry.Service, error) {
				return listener, nil
			},
		},
	}

	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if !svc.enabled {
			sr.Logger.Debug().Str("service", svc.name).Msg("Service is disabled, skipping")
			continue
		}
		serviceInstance, err := svc.constructor()
		if err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
			return err
		}
		sr.RegisterService(svc.name, serviceInstance)
		registeredServices = append(registeredServices, svc.name)
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
