// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"droneops-gateway/internal/policy"
)

// Duration wraps time.Duration so YAML values like "5s" parse directly.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Thresholds configures the telemetry persistence deltas.
type Thresholds struct {
	MinHorizontalM  float64  `yaml:"min_horizontal_m"`
	MinAltitudeM    float64  `yaml:"min_altitude_m"`
	MinVelocityMps  float64  `yaml:"min_velocity_mps"`
	MinHeadingDeg   float64  `yaml:"min_heading_deg"`
	MinBatteryPct   float64  `yaml:"min_battery_pct"`
	MinBatteryTempC float64  `yaml:"min_battery_temp_c"`
	MaxInterval     Duration `yaml:"max_interval"`
}

// Persistence configures where telemetry history and events are stored.
// An empty endpoint selects the JSON stdout writer.
type Persistence struct {
	Endpoint   string     `yaml:"endpoint"`
	Database   string     `yaml:"database"`
	LogFile    string     `yaml:"log_file"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// GatewayConfig is the root configuration of the gateway process.
type GatewayConfig struct {
	FleetHubURL        string      `yaml:"fleet_hub_url"`
	ListenAddr         string      `yaml:"listen_addr"`
	DisconnectTimeout  Duration    `yaml:"disconnect_timeout"`
	SweepInterval      Duration    `yaml:"sweep_interval"`
	CommandQueueSize   int         `yaml:"command_queue_size"`
	ProcessorQueueSize int         `yaml:"processor_queue_size"`
	Persistence        Persistence `yaml:"persistence"`
}

// PolicyThresholds converts the configured deltas into the persistence
// policy's representation, falling back to defaults for zero values.
func (c *GatewayConfig) PolicyThresholds() policy.Thresholds {
	t := policy.Defaults()
	cfg := c.Persistence.Thresholds
	if cfg.MinHorizontalM > 0 {
		t.MinHorizontalMeters = cfg.MinHorizontalM
	}
	if cfg.MinAltitudeM > 0 {
		t.MinAltitudeMeters = cfg.MinAltitudeM
	}
	if cfg.MinVelocityMps > 0 {
		t.MinVelocityMetersPerSec = cfg.MinVelocityMps
	}
	if cfg.MinHeadingDeg > 0 {
		t.MinHeadingDegrees = cfg.MinHeadingDeg
	}
	if cfg.MinBatteryPct > 0 {
		t.MinBatteryLevelPercent = cfg.MinBatteryPct
	}
	if cfg.MinBatteryTempC > 0 {
		t.MinBatteryTempCelsius = cfg.MinBatteryTempC
	}
	if cfg.MaxInterval > 0 {
		t.MaxInterval = cfg.MaxInterval.Std()
	}
	return t
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*GatewayConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *GatewayConfig) {
	if cfg.FleetHubURL == "" {
		cfg.FleetHubURL = "ws://localhost:8083/fleet"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8082"
	}
	if cfg.DisconnectTimeout == 0 {
		cfg.DisconnectTimeout = Duration(5 * time.Second)
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = Duration(time.Second)
	}
	if cfg.CommandQueueSize == 0 {
		cfg.CommandQueueSize = 256
	}
	if cfg.ProcessorQueueSize == 0 {
		cfg.ProcessorQueueSize = 1024
	}
	if cfg.Persistence.Database == "" {
		cfg.Persistence.Database = "public"
	}
}

// applyEnv lets deployment environments override the file without
// editing it.
func applyEnv(cfg *GatewayConfig) {
	if v := os.Getenv("FLEETHUB_URL"); v != "" {
		cfg.FleetHubURL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		cfg.Persistence.Endpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_DATABASE"); v != "" {
		cfg.Persistence.Database = v
	}
}
