package symcore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("symcore: invalid config")

// Config controls the rewrite engine.
type Config struct {
	EnableRadicalRules bool `mapstructure:"enable_radical_rules" json:"enable_radical_rules"`
	EnableTrigRules    bool `mapstructure:"enable_trig_rules" json:"enable_trig_rules"`
	EnableAlgebraRules bool `mapstructure:"enable_algebra_rules" json:"enable_algebra_rules"`

	// MaxIterations caps the fixpoint loop. Reaching it is not an error.
	MaxIterations uint `mapstructure:"max_iterations" json:"max_iterations"`
	// MaxComplexityNodes caps the nodes visited per pass. Zero disables it.
	MaxComplexityNodes uint `mapstructure:"max_complexity_nodes" json:"max_complexity_nodes"`
	// MaxExponentMagnitude is the largest exponent evaluated numerically.
	MaxExponentMagnitude *big.Int `mapstructure:"-" json:"-"`
	// TimeBudget bounds a single request. Zero means none.
	TimeBudget time.Duration `mapstructure:"time_budget" json:"time_budget"`

	AllowApproximation bool  `mapstructure:"allow_approximation" json:"allow_approximation"`
	AllowComplex       bool  `mapstructure:"allow_complex" json:"allow_complex"`
	DecimalPrecision   uint  `mapstructure:"decimal_precision" json:"decimal_precision"`
	MaxResultBits      int64 `mapstructure:"max_result_bits" json:"max_result_bits"`
	CacheSize          int   `mapstructure:"cache_size" json:"cache_size"`
	Workers            int   `mapstructure:"workers" json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		EnableRadicalRules:   true,
		EnableTrigRules:      true,
		EnableAlgebraRules:   true,
		MaxIterations:        10,
		MaxComplexityNodes:   100000,
		MaxExponentMagnitude: big.NewInt(1000),
		AllowComplex:         true,
		DecimalPrecision:     DefaultPrecision,
		MaxResultBits:        1 << 20,
		CacheSize:            4096,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxIterations == 0:
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrInvalidConfig)
	case c.MaxExponentMagnitude == nil || c.MaxExponentMagnitude.Sign() < 0:
		return fmt.Errorf("%w: max_exponent_magnitude must be a non-negative integer", ErrInvalidConfig)
	case c.TimeBudget < 0:
		return fmt.Errorf("%w: time_budget must not be negative", ErrInvalidConfig)
	case c.DecimalPrecision == 0:
		return fmt.Errorf("%w: decimal_precision must be positive", ErrInvalidConfig)
	case c.MaxResultBits < 0:
		return fmt.Errorf("%w: max_result_bits must not be negative", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Limits derives the numeric guards.
func (c Config) Limits() Limits {
	lim := Limits{MaxResultBits: c.MaxResultBits, Precision: c.DecimalPrecision}
	if c.MaxExponentMagnitude != nil {
		lim.MaxExponent = new(big.Int).Set(c.MaxExponentMagnitude)
	}
	return lim
}

// fingerprint identifies the settings that influence rewrite results.
// Guards that only bound resources are excluded.
func (c Config) fingerprint(rules []string) uint64 {
	d := xxhash.New()
	_, _ = fmt.Fprintf(d, "%t|%t|%t|%t|%t|%d|%d|%s|%s",
		c.EnableRadicalRules, c.EnableTrigRules, c.EnableAlgebraRules,
		c.AllowApproximation, c.AllowComplex, c.DecimalPrecision, c.MaxResultBits,
		c.MaxExponentMagnitude, strings.Join(rules, ","))
	return d.Sum64()
}

// configFile mirrors Config with the big integer kept as text.
type configFile struct {
	Config               `mapstructure:",squash"`
	MaxExponentMagnitude string `mapstructure:"max_exponent_magnitude"`
}

// DecodeConfig applies raw settings on top of DefaultConfig. Durations are
// accepted as strings ("250ms") and scalars are weakly typed.
func DecodeConfig(raw map[string]any) (Config, error) {
	file := configFile{Config: DefaultConfig()}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(mapstructure.StringToTimeDurationHookFunc()),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &file,
	})
	if err != nil {
		return Config{}, fmt.Errorf("symcore: config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg := file.Config
	if file.MaxExponentMagnitude != "" {
		v, ok := new(big.Int).SetString(file.MaxExponentMagnitude, 10)
		if !ok {
			return Config{}, fmt.Errorf("%w: max_exponent_magnitude %q is not an integer", ErrInvalidConfig, file.MaxExponentMagnitude)
		}
		cfg.MaxExponentMagnitude = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("symcore: read config: %w", err)
	}
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return DecodeConfig(raw)
}
