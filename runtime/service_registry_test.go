package runtime

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	started bool
	stopped bool
	status  error
}

func (m *mockService) Start()        { m.started = true }
func (m *mockService) Stop() error   { m.stopped = true; return nil }
func (m *mockService) Status() error { return m.status }

type secondMockService struct {
	mockService
}

func TestRegisterService_Twice(t *testing.T) {
	registry := NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&mockService{}))
	assert.Error(t, registry.RegisterService(&mockService{}))
}

func TestRegisterService_Different(t *testing.T) {
	registry := NewServiceRegistry()
	require.NoError(t, registry.RegisterService(&mockService{}))
	require.NoError(t, registry.RegisterService(&secondMockService{}))
}

func TestStartStopAll(t *testing.T) {
	registry := NewServiceRegistry()
	first := &mockService{}
	second := &secondMockService{}
	require.NoError(t, registry.RegisterService(first))
	require.NoError(t, registry.RegisterService(second))

	registry.StartAll()
	assert.True(t, first.started)
	assert.True(t, second.started)

	registry.StopAll()
	assert.True(t, first.stopped)
	assert.True(t, second.stopped)
}

func TestStatuses(t *testing.T) {
	registry := NewServiceRegistry()
	healthy := &mockService{}
	unhealthy := &secondMockService{}
	unhealthy.status = errors.New("degraded")
	require.NoError(t, registry.RegisterService(healthy))
	require.NoError(t, registry.RegisterService(unhealthy))

	statuses := registry.Statuses()
	assert.NoError(t, statuses[reflect.TypeOf(healthy)])
	assert.Error(t, statuses[reflect.TypeOf(unhealthy)])
}

func TestFetchService(t *testing.T) {
	registry := NewServiceRegistry()
	registered := &mockService{}
	require.NoError(t, registry.RegisterService(registered))

	var fetched *mockService
	require.NoError(t, registry.FetchService(&fetched))
	assert.Same(t, registered, fetched)

	var missing *secondMockService
	assert.Error(t, registry.FetchService(&missing))
	assert.Error(t, registry.FetchService(*registered))
}
