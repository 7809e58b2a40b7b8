package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ssds/seat-allocation/pkg/core/allocator"
	"github.com/ssds/seat-allocation/pkg/core/model"
)

const (
	DefaultServerAddr  = ":8080"
	DefaultMaxUploadMB = 10
	DefaultLogDir      = "logs"
)

// QuotaList is the channel quota split in declaration order.
// In YAML it is a mapping of channel name to fraction; mapping order is kept
// because it breaks ties when seats are apportioned.
type QuotaList []model.ChannelQuota

// AllocationConfig holds the saved allocation settings used when a request does not override them
type AllocationConfig struct {
	// Mode is EQUAL or MANUAL
	Mode model.Mode `yaml:"mode" validate:"omitempty,oneof=EQUAL MANUAL"`

	// TotalSeats is split evenly across departments in EQUAL mode
	TotalSeats int `yaml:"totalSeats" validate:"min=0"`

	// Departments are the active departments in priority order.
	// When empty the departments are taken from capacities or the roster.
	Departments []string `yaml:"departments,omitempty" validate:"dive,required"`

	// Capacities are per-department seats for MANUAL mode
	Capacities map[string]int `yaml:"capacities,omitempty" validate:"dive,min=0"`

	Quotas QuotaList `yaml:"quotas,omitempty"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	MaxUploadMB int    `yaml:"maxUploadMB,omitempty" validate:"min=0"`
}

// SheetsConfig points at the Google spreadsheets used as roster source and results target
type SheetsConfig struct {
	RosterSheetID  string `yaml:"rosterSheetID,omitempty"`
	RosterTab      string `yaml:"rosterTab,omitempty" validate:"required_with=RosterSheetID"`
	ResultsSheetID string `yaml:"resultsSheetID,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Allocation AllocationConfig `yaml:"allocation"`

	// DatabaseURL enables run history when set
	DatabaseURL string `yaml:"databaseURL,omitempty"`

	LogDir string       `yaml:"logDir,omitempty"`
	Server ServerConfig `yaml:"server,omitempty"`
	Sheets SheetsConfig `yaml:"sheets,omitempty"`

	// Path is the file the configuration was loaded from
	Path string `yaml:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// FileName returns the config file name for an environment, e.g. "seat_config.prod.yaml"
func FileName(env string) string {
	if env == "" {
		return "seat_config.yaml"
	}
	return "seat_config." + env + ".yaml"
}

// LoadWithEnv loads and validates the configuration with an environment suffix.
// It looks for the config file in the current directory first, then in the user's home directory.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(FileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads, defaults and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Path = path

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration as YAML
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills unset settings: EQUAL mode, the 60/30/10 quota split,
// the default server address, upload limit and log directory
func ApplyDefaults(cfg *Config) {
	if cfg.Allocation.Mode == "" {
		cfg.Allocation.Mode = model.ModeEqual
	}
	if len(cfg.Allocation.Quotas) == 0 {
		cfg.Allocation.Quotas = append(QuotaList(nil), model.DefaultQuotas...)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir
	}
}

// Validate validates the configuration struct, the quota split and the department list
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := allocator.ValidateQuotas(cfg.Allocation.Quotas); err != nil {
		return fmt.Errorf("invalid quotas: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Allocation.Departments))
	for _, name := range cfg.Allocation.Departments {
		if seen[name] {
			return fmt.Errorf("duplicate department %q in allocation.departments", name)
		}
		seen[name] = true
	}

	return nil
}

// NormaliseFraction accepts a quota as a fraction or a percentage.
// Values above 1 are read as percentages, so 30 and 0.3 are the same quota.
func NormaliseFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// UnmarshalYAML decodes a channel-to-fraction mapping, keeping key order
func (q *QuotaList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: quotas must be a mapping of channel to fraction", node.Line)
	}

	list := make(QuotaList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		ch, err := model.ParseChannel(key.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", key.Line, err)
		}

		var fraction float64
		if err := value.Decode(&fraction); err != nil {
			return fmt.Errorf("line %d: quota for %q: %w", value.Line, key.Value, err)
		}

		list = append(list, model.ChannelQuota{Channel: ch, Fraction: NormaliseFraction(fraction)})
	}

	*q = list
	return nil
}

// MarshalYAML encodes the quotas as an ordered mapping
func (q QuotaList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, quota := range q {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(quota.Channel)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(quota.Fraction, 'f', -1, 64)},
		)
	}
	return node, nil
}

// findFile searches for fileName in the current directory, then the home directory
func findFile(fileName string) (string, error) {
	// Check current directory
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
