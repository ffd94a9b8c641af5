package device

import (
	"context"
	"testing"

	"github.com/sai-voice/server/domain/entities"
)

func TestRegisterAndValidate(t *testing.T) {
	repo := NewMemoryDeviceRepository()

	dev := &entities.Device{SerialNumber: "SN-001", Model: "kiosk"}
	if err := repo.Register(dev, "secret-key"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if dev.ID == "" {
		t.Error("Expected an ID to be assigned")
	}

	got, err := repo.ValidateDevice("SN-001", "secret-key")
	if err != nil {
		t.Fatalf("ValidateDevice failed: %v", err)
	}
	if got.ID != dev.ID {
		t.Errorf("Expected device %s, got %s", dev.ID, got.ID)
	}

	if _, err := repo.ValidateDevice("SN-001", "wrong"); err == nil {
		t.Error("Expected error for wrong secret")
	}
	if _, err := repo.ValidateDevice("SN-404", "secret-key"); err == nil {
		t.Error("Expected error for unknown serial")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo := NewMemoryDeviceRepository()

	if err := repo.Register(&entities.Device{SerialNumber: "SN-001"}, "a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := repo.Register(&entities.Device{SerialNumber: "SN-001"}, "b"); err == nil {
		t.Error("Expected error for duplicate serial")
	}
}

func TestGetters(t *testing.T) {
	repo := NewMemoryDeviceRepository()
	ctx := context.Background()

	dev := &entities.Device{SerialNumber: "SN-002"}
	if err := repo.Create(ctx, dev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if got, err := repo.GetByID(ctx, dev.ID); err != nil || got.SerialNumber != "SN-002" {
		t.Errorf("GetByID returned %v, %v", got, err)
	}
	if got, err := repo.GetBySerialNumber(ctx, "SN-002"); err != nil || got.ID != dev.ID {
		t.Errorf("GetBySerialNumber returned %v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown id")
	}
}
