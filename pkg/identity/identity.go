package identity

import (
	"errors"
	"io/fs"

	"github.com/google/uuid"
	"github.com/roam-ai/whileusing-batch-listener/pkg/file"
)

// Identity holds the tracked device's identifier and display name.
type Identity struct {
	ID   string `json:"device_id,omitempty"`
	Name string `json:"device_name,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	EnsureDeviceID() (string, error)
	GetDeviceID() string
	GetDeviceIdentity() *Identity
}

// DeviceInfo manages the device identity and its backing file.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) *DeviceInfo {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
	}
}

// LoadDeviceInfo reads the identity file. A missing file leaves the identity empty.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.Identity = Identity{}
			return nil
		}
		return err
	}
	return nil
}

// EnsureDeviceID returns the stored device ID, generating and persisting one on first use.
func (d *DeviceInfo) EnsureDeviceID() (string, error) {
	if d.Identity.ID != "" {
		return d.Identity.ID, nil
	}
	d.Identity.ID = uuid.New().String()
	if err := d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity); err != nil {
		return d.Identity.ID, err
	}
	return d.Identity.ID, nil
}

// GetDeviceIdentity returns the current device Identity.
func (d *DeviceInfo) GetDeviceIdentity() *Identity {
	return &d.Identity
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}
