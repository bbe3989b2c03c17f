// Package runtime manages the lifecycle of the long-running services a
// beacon node process is composed of.
package runtime

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

// Service is a long-running component with a managed lifecycle. Services are
// registered once at startup and driven by the registry from then on.
type Service interface {
	// Start spawns the goroutines the service needs. It must not block.
	Start()
	// Stop terminates the service's goroutines and blocks until they exit.
	Stop() error
	// Status returns nil when the service is healthy.
	Status() error
}

// ServiceRegistry holds the registered services keyed by their concrete
// type, preserving registration order for startup and shutdown.
type ServiceRegistry struct {
	services     map[reflect.Type]Service
	serviceTypes []reflect.Type
}

// NewServiceRegistry instantiates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// RegisterService adds a service to the registry. At most one service per
// concrete type may be registered.
func (s *ServiceRegistry) RegisterService(service Service) error {
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return errors.Errorf("service already registered: %v", kind)
	}
	s.services[kind] = service
	s.serviceTypes = append(s.serviceTypes, kind)
	return nil
}

// StartAll starts every registered service in registration order.
func (s *ServiceRegistry) StartAll() {
	log.WithField("count", len(s.serviceTypes)).Debug("Starting services")
	for _, kind := range s.serviceTypes {
		s.services[kind].Start()
	}
}

// StopAll stops every registered service in reverse registration order, so
// dependents shut down before the services they rely on.
func (s *ServiceRegistry) StopAll() {
	for i := len(s.serviceTypes) - 1; i >= 0; i-- {
		kind := s.serviceTypes[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).WithField("service", kind.String()).Error("Could not stop service")
		}
	}
}

// Statuses reports the health of every registered service.
func (s *ServiceRegistry) Statuses() map[reflect.Type]error {
	m := make(map[reflect.Type]error, len(s.serviceTypes))
	for _, kind := range s.serviceTypes {
		m[kind] = s.services[kind].Status()
	}
	return m
}

// FetchService sets the given pointer to the registered service of the
// pointed-to type, so collaborators share one instance.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return errors.Errorf("input must be of pointer type, received value type instead: %T", service)
	}
	element := reflect.ValueOf(service).Elem()
	if registered, ok := s.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(registered))
		return nil
	}
	return errors.Errorf("unknown service: %T", service)
}
