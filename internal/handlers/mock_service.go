package handlers

import (
	"context"
	"net/http"

	"iothub/internal/models"
	"iothub/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDevices struct {
	devices []models.Device
	getDev  models.Device
	getErr  error

	registerDev models.Device
	registerErr error
	removeErr   error

	history    []models.TelemetrySample
	historyErr error
	stats      models.DeviceStats
	statsErr   error

	lastRegister service.RegisterParams
	lastHours    int
	removed      []string
}

func (m *mockDevices) List(ctx context.Context) []models.Device {
	return m.devices
}
func (m *mockDevices) Get(ctx context.Context, deviceID string) (models.Device, error) {
	return m.getDev, m.getErr
}
func (m *mockDevices) Register(ctx context.Context, p service.RegisterParams) (models.Device, error) {
	m.lastRegister = p
	return m.registerDev, m.registerErr
}
func (m *mockDevices) Remove(ctx context.Context, deviceID string) error {
	m.removed = append(m.removed, deviceID)
	return m.removeErr
}
func (m *mockDevices) History(ctx context.Context, deviceID string, hours int) ([]models.TelemetrySample, error) {
	m.lastHours = hours
	return m.history, m.historyErr
}
func (m *mockDevices) Stats(ctx context.Context, deviceID string) (models.DeviceStats, error) {
	return m.stats, m.statsErr
}

type mockTelemetry struct {
	snapshot  []models.TelemetrySample
	latest    models.TelemetrySample
	latestErr error
}

func (m *mockTelemetry) Snapshot(deviceID string) []models.TelemetrySample {
	return m.snapshot
}
func (m *mockTelemetry) Latest(deviceID string) (models.TelemetrySample, error) {
	return m.latest, m.latestErr
}

type mockCommands struct {
	err   error
	calls []struct {
		deviceID    string
		commandType string
		value       any
	}
}

func (m *mockCommands) Send(deviceID, commandType string, value any) error {
	m.calls = append(m.calls, struct {
		deviceID    string
		commandType string
		value       any
	}{deviceID, commandType, value})
	return m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, func() bool { return true })
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
