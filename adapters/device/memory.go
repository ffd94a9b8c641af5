// Package device stores registered devices. The in-memory implementation is
// the only backend; conversation state is never persisted, so a database adds
// nothing here.
package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sai-voice/server/domain/entities"
	"github.com/sai-voice/server/domain/repositories"
)

// MemoryDeviceRepository is an in-memory implementation of DeviceRepository.
type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*entities.Device // id -> device
	serials map[string]*entities.Device // serial_number -> device
	secrets map[string]string           // serial_number -> secret_key
}

var _ repositories.DeviceRepository = (*MemoryDeviceRepository)(nil)

// NewMemoryDeviceRepository creates an empty repository.
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{
		devices: make(map[string]*entities.Device),
		serials: make(map[string]*entities.Device),
		secrets: make(map[string]string),
	}
}

// Register adds a device with its secret, assigning an ID if missing.
func (m *MemoryDeviceRepository) Register(device *entities.Device, secret string) error {
	if err := device.Validate(); err != nil {
		return err
	}
	if secret == "" {
		return errors.New("secret key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.serials[device.SerialNumber]; exists {
		return errors.New("device already registered")
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	m.devices[device.ID] = device
	m.serials[device.SerialNumber] = device
	m.secrets[device.SerialNumber] = secret
	return nil
}

// Create implements DeviceRepository. The device is stored without a secret
// and cannot authenticate until one is set via Register.
func (m *MemoryDeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.serials[device.SerialNumber]; exists {
		return errors.New("device already registered")
	}
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	m.devices[device.ID] = device
	m.serials[device.SerialNumber] = device
	return nil
}

// GetByID implements DeviceRepository.
func (m *MemoryDeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.devices[id]
	if !exists {
		return nil, errors.New("device not found")
	}
	return device, nil
}

// GetBySerialNumber implements DeviceRepository.
func (m *MemoryDeviceRepository) GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	device, exists := m.serials[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	return device, nil
}

// ValidateDevice validates device credentials (serial number + secret).
func (m *MemoryDeviceRepository) ValidateDevice(serialNumber, secret string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storedSecret, exists := m.secrets[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	if storedSecret != secret {
		return nil, errors.New("invalid credentials")
	}

	device, exists := m.serials[serialNumber]
	if !exists {
		return nil, errors.New("device not found")
	}
	return device, nil
}
