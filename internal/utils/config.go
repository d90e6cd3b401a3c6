package utils

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/roam-ai/whileusing-batch-listener/internal/constants"
	"github.com/roam-ai/whileusing-batch-listener/pkg/file"
)

// Environment variables that override secrets from the configuration file.
const (
	EnvConfigPath  = "TRACKER_CONFIG"
	EnvLicenseKey  = "TRACKER_LICENSE_KEY"
	EnvMapsAPIKey  = "TRACKER_MAPS_API_KEY"
	DefaultConfig  = "configs/config.yaml"
	DefaultEnvFile = ".env"
)

// SDK drivers.
const (
	DriverLocal  = "local"
	DriverRemote = "remote"
)

// Local location providers.
const (
	ProviderSensor = "sensor"
	ProviderGoogle = "google"
	ProviderMock   = "mock"
)

// UI modes.
const (
	UIModeWindow  = "window"
	UIModeConsole = "console"
)

// Config represents the structure of the configuration file.
type Config struct {
	Logging struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"logging"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	SDK struct {
		Driver            string        `yaml:"driver"`             // local or remote
		LicenseKey        string        `yaml:"license_key"`        // SDK license key
		VersionConstraint string        `yaml:"version_constraint"` // semver constraint the binding must satisfy
		PollInterval      time.Duration `yaml:"poll_interval"`      // Local driver sampling interval
	} `yaml:"sdk"`

	Location struct {
		Provider          string  `yaml:"provider"`        // sensor, google or mock
		MapsAPIKey        string  `yaml:"maps_api_key"`    // Google maps API Key
		ModemIndex        int     `yaml:"modem_index"`     // ModemManager modem used for cell lookup
		GPSDeviceBaudRate int     `yaml:"gps_baud_rate"`   // The Baud rate for GPS sensor
		GPSDevicePort     string  `yaml:"gps_device_port"` // UNIX Port where the GPS sensor is mounted
		MockLatitude      float64 `yaml:"mock_latitude"`
		MockLongitude     float64 `yaml:"mock_longitude"`
		MockAccuracy      float64 `yaml:"mock_accuracy"`
	} `yaml:"location"`

	MQTT struct {
		Broker         string        `yaml:"broker"`          // MQTT broker address
		ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix
		CACertificate  string        `yaml:"ca_certificate"`  // Optional path to the CA certificate
		TopicPrefix    string        `yaml:"topic_prefix"`    // Prefix of the remote SDK topics
		QOS            int           `yaml:"qos"`             // MQTT QoS level
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Broker connect and token wait timeout
	} `yaml:"mqtt"`

	Tracking struct {
		BatchEnabled           bool          `yaml:"batch_enabled"`
		BatchInterval          time.Duration `yaml:"batch_interval"`
		AllowMockLocation      bool          `yaml:"allow_mock_location"`
		ForegroundNotification struct {
			Enabled      bool   `yaml:"enabled"`
			Title        string `yaml:"title"`
			Body         string `yaml:"body"`
			Icon         string `yaml:"icon"`
			PackageID    string `yaml:"package_id"`
			ServiceClass string `yaml:"service_class"`
		} `yaml:"foreground_notification"`
	} `yaml:"tracking"`

	Permissions struct {
		Grants       []string `yaml:"grants"`        // Permissions the policy requester grants
		RequireGrant bool     `yaml:"require_grant"` // Abort StartTracking when phone state is denied
		Prompt       bool     `yaml:"prompt"`        // Ask on the terminal instead of using the policy
	} `yaml:"permissions"`

	Receiver struct {
		MQTTEnabled bool   `yaml:"mqtt_enabled"` // Publish background events to MQTT
		Topic       string `yaml:"topic"`        // Topic for background events
	} `yaml:"receiver"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"` // listen address for /metrics and /healthz
	} `yaml:"metrics"`

	UI struct {
		Mode  string `yaml:"mode"` // window or console
		Title string `yaml:"title"`
	} `yaml:"ui"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// environment overrides and fills defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := newConfig()
	if err := fileClient.ReadYamlFile(filename, config); err != nil {
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()
	return config, nil
}

// LoadEnvFile loads a dotenv file into the process environment if it exists.
func LoadEnvFile(path string, fileClient file.FileOperations) error {
	exists, err := fileClient.IsFileExists(path)
	if err != nil || !exists {
		return err
	}
	return godotenv.Load(path)
}

// ConfigPath returns the configuration path, honouring TRACKER_CONFIG.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfig
}

// newConfig presets the true-valued booleans, which YAML cannot tell apart from unset.
func newConfig() *Config {
	c := &Config{}
	c.Tracking.BatchEnabled = constants.DefaultBatchEnabled
	c.Tracking.BatchInterval = constants.DefaultBatchInterval
	c.Tracking.AllowMockLocation = true
	c.Tracking.ForegroundNotification.Enabled = true
	return c
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLicenseKey); v != "" {
		c.SDK.LicenseKey = v
	}
	if v := os.Getenv(EnvMapsAPIKey); v != "" {
		c.Location.MapsAPIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Identity.DeviceFile == "" {
		c.Identity.DeviceFile = "configs/device.json"
	}
	if c.SDK.Driver == "" {
		c.SDK.Driver = DriverLocal
	}
	if c.SDK.PollInterval <= 0 {
		c.SDK.PollInterval = 5 * time.Second
	}
	if c.Location.Provider == "" {
		c.Location.Provider = ProviderMock
	}
	if c.Location.GPSDeviceBaudRate == 0 {
		c.Location.GPSDeviceBaudRate = 9600
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "tracker"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "tracker"
	}
	if c.MQTT.ConnectTimeout <= 0 {
		c.MQTT.ConnectTimeout = 10 * time.Second
	}
	if c.Receiver.Topic == "" {
		c.Receiver.Topic = c.MQTT.TopicPrefix + "/receiver"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.UI.Mode == "" {
		c.UI.Mode = UIModeWindow
	}
	if c.UI.Title == "" {
		c.UI.Title = "Batch Listener"
	}

	n := &c.Tracking.ForegroundNotification
	if n.Title == "" {
		n.Title = constants.DefaultNotificationTitle
	}
	if n.Body == "" {
		n.Body = constants.DefaultNotificationBody
	}
	if n.Icon == "" {
		n.Icon = constants.DefaultNotificationIcon
	}
	if n.PackageID == "" {
		n.PackageID = constants.DefaultNotificationPackage
	}
	if n.ServiceClass == "" {
		n.ServiceClass = constants.DefaultNotificationService
	}
}
