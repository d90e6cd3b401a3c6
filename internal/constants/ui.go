package constants

// Section titles and placeholders shown by the shells.
const (
	LocationSectionTitle = "Location Data"
	DeviceSectionTitle   = "Device Info"
	NoLocationData       = "No location data available"
	NoDeviceInfo         = "No device info available"
)
