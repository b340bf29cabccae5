package pageflow

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	playground "github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/pageflow/pkg/domain"
)

var validate = playground.New()

// Config holds the engine and host settings.
// It is usually loaded from a YAML file with LoadConfig.
type Config struct {
	// DebugMode adds execution-log entries to every result.
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
	// MaxIterations caps page visits per run and repetitions per page.
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations" default:"1000" validate:"gte=1"`
	// AllowUnsafeExpressions disables the script identifier denylist. UNSAFE.
	AllowUnsafeExpressions bool `yaml:"allow_unsafe_expressions" mapstructure:"allow_unsafe_expressions"`
	// StrictEquality makes equals/not_equals compare without coercion.
	StrictEquality bool `yaml:"strict_equality" mapstructure:"strict_equality"`
	// ScriptTimeout bounds each script condition.
	ScriptTimeout time.Duration `yaml:"script_timeout" mapstructure:"script_timeout" default:"1s" validate:"gt=0"`
	// ComplexityCeiling is the script complexity score that triggers a warning.
	ComplexityCeiling int `yaml:"complexity_ceiling" mapstructure:"complexity_ceiling" default:"50" validate:"gte=0"`

	LogLevel string       `yaml:"log_level" mapstructure:"log_level" default:"info" validate:"oneof=debug info warn error"`
	Cache    CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
}

// CacheConfig selects the sequence cache used by the CLI and server.
type CacheConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver" default:"none" validate:"oneof=none memory file redis"`
	// Path is the directory of the file cache.
	Path string `yaml:"path" mapstructure:"path" default:".pageflow/cache"`

	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr" default:"localhost:6379" validate:"required_if=Driver redis,omitempty,hostname_port"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db" validate:"gte=0"`
	Prefix        string        `yaml:"prefix" mapstructure:"prefix" default:"pageflow:sequence:"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port" default:"8080" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" default:"5s" validate:"gt=0"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	// Tags are static; Set only fails on malformed tags.
	_ = defaults.Set(&cfg)
	return cfg
}

// LoadConfig reads a YAML config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config bytes: defaults first, then the file
// values, then validation.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("%w: invalid config yaml: %v", domain.ErrConfiguration, err)
	}

	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "mapstructure",
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		})
		if err != nil {
			return Config{}, err
		}
		if err := decoder.Decode(raw); err != nil {
			return Config{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(playground.ValidationErrors); ok {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation (rule: %s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: config validation failed: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: config validation failed: %v", domain.ErrConfiguration, err)
	}
	return nil
}
