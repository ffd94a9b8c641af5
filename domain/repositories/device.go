package repositories

import (
	"context"

	"github.com/sai-voice/server/domain/entities"
)

// DeviceRepository defines data access methods for devices.
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication.
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}
