package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/klauspost/cpuid/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LoadConfig resolves the config hierarchy: defaults -> YAML file (if
// configPath is non-empty) -> environment variable overrides.
func LoadConfig(configPath string) (Config, error) {
	var cfg Config
	if configPath != "" {
		var err error
		cfg, err = ConfigFromFile(configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = DefaultConfig()
	}
	return ConfigFromEnv(cfg), nil
}

// ConfigFromFile loads defaults, then overlays the YAML document at path.
func ConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv applies CC_ prefixed environment variable overrides.
//
//	CC_DATA_PATH            -> DataPath
//	CC_DEVICE_MAX_SLOTS     -> Device.MaxSlots
//	CC_DEVICE_CACHE_DIR     -> Device.CacheDir
//	CC_KERNEL_THROTTLE_MS   -> Kernel.ThrottleMS
//	CC_SUBQG_WIDTH          -> SubQG.Width
//	CC_SUBQG_HEIGHT         -> SubQG.Height
//	CC_SUBQG_RNG_SEED       -> SubQG.RNGSeed
//	CC_MYCEL_CAPACITY       -> Mycel.Capacity
//	CC_AGENT_COUNT          -> Agent.Count
//	CC_DISABLE_QUANTUM      -> Quantum.Enabled=false when set (also read directly by pkg/driver)
//	CC_MCP_ADDR             -> MCP.Addr
//	CC_MCP_ENABLED          -> MCP.Enabled
func ConfigFromEnv(cfg Config) Config {
	setEnvStr("CC_DATA_PATH", &cfg.DataPath)
	setEnvInt("CC_DEVICE_MAX_SLOTS", &cfg.Device.MaxSlots)
	setEnvStr("CC_DEVICE_CACHE_DIR", &cfg.Device.CacheDir)
	setEnvInt("CC_KERNEL_THROTTLE_MS", &cfg.Kernel.ThrottleMS)
	setEnvInt("CC_SUBQG_WIDTH", &cfg.SubQG.Width)
	setEnvInt("CC_SUBQG_HEIGHT", &cfg.SubQG.Height)
	setEnvUint64("CC_SUBQG_RNG_SEED", &cfg.SubQG.RNGSeed)
	setEnvInt("CC_MYCEL_CAPACITY", &cfg.Mycel.Capacity)
	setEnvInt("CC_AGENT_COUNT", &cfg.Agent.Count)
	if _, disabled := os.LookupEnv("CC_DISABLE_QUANTUM"); disabled {
		cfg.Quantum.Enabled = false
	}
	setEnvStr("CC_MCP_ADDR", &cfg.MCP.Addr)
	setEnvBool("CC_MCP_ENABLED", &cfg.MCP.Enabled)
	return cfg
}

// Validate performs structural validation, returning a descriptive error
// for the first invalid field encountered.
func (c *Config) Validate() error {
	if c.Device.MaxSlots < 1 {
		return fmt.Errorf("device.maxSlots must be >= 1, got %d", c.Device.MaxSlots)
	}
	if c.SubQG.Width < 1 || c.SubQG.Height < 1 {
		return fmt.Errorf("subqg.width/height must be >= 1, got %dx%d", c.SubQG.Width, c.SubQG.Height)
	}
	if c.Mycel.Capacity < 1 {
		return fmt.Errorf("mycel.capacity must be >= 1, got %d", c.Mycel.Capacity)
	}
	if c.Mycel.Channels < 1 {
		return fmt.Errorf("mycel.channels must be >= 1, got %d", c.Mycel.Channels)
	}
	if c.Mycel.Neighbors < 1 {
		return fmt.Errorf("mycel.neighbors must be >= 1, got %d", c.Mycel.Neighbors)
	}
	if c.Mycel.ActivePrefix > c.Mycel.Capacity {
		return fmt.Errorf("mycel.activePrefix (%d) must be <= mycel.capacity (%d)", c.Mycel.ActivePrefix, c.Mycel.Capacity)
	}
	if c.Agent.Count < 0 {
		return fmt.Errorf("agent.count must be >= 0, got %d", c.Agent.Count)
	}
	if c.Quantum.MaxQubits < 1 || c.Quantum.MaxQubits > 30 {
		return fmt.Errorf("quantum.maxQubits must be in [1,30], got %d", c.Quantum.MaxQubits)
	}
	if c.DataPath == "" {
		return fmt.Errorf("dataPath must not be empty")
	}
	return nil
}

// PrintBanner writes the startup banner to stdout.
func PrintBanner() {
	banner := `
   __  __                _ _
  |  \/  |_   _  ___ ___| (_) __ _
  | |\/| | | | |/ __/ _ \ | |/ _` + "`" + ` |
  | |  | | |_| | (_|  __/ | | (_| |
  |_|  |_|\__, |\___\___|_|_|\__,_|
          |___/   host-side GPU compute driver
`
	fmt.Print(banner)
	logrus.WithFields(logrus.Fields{
		"cpu":     cpuid.CPU.BrandName,
		"avx2":    cpuid.CPU.Supports(cpuid.AVX2),
		"avx512f": cpuid.CPU.Supports(cpuid.AVX512F),
	}).Info("host CPU features (render fallback path and host-side SubQG stepping run here)")
}

// WaitForShutdown blocks until SIGINT/SIGTERM or ctx is done, then cancels.
func WaitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logrus.WithField("signal", sig).Info("received shutdown signal")
		cancel()
	case <-ctx.Done():
	}
}

func setEnvStr(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setEnvBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func setEnvInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setEnvUint64(key string, target *uint64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*target = n
		}
	}
}
