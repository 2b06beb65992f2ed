package core

// Config is the YAML-loadable configuration for the driver process.
// Mirrors the teacher's nested-struct-per-concern layout; CLI flags override
// fields after YAML load, following the same precedence chain.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Kernel   KernelConfig   `yaml:"kernel"`
	SubQG    SubQGConfig    `yaml:"subqg"`
	Mycel    MycelConfig    `yaml:"mycel"`
	Agent    AgentConfig    `yaml:"agent"`
	Quantum  QuantumConfig  `yaml:"quantum"`
	Render   RenderConfig   `yaml:"render"`
	MCP      MCPConfig      `yaml:"mcp"`
	DataPath string         `yaml:"dataPath"`
}

// DeviceConfig controls device discovery and the kernel-binary cache.
type DeviceConfig struct {
	MaxSlots     int    `yaml:"maxSlots"`
	CacheDir     string `yaml:"cacheDir"`
	PreferDevice int    `yaml:"preferDevice"`
}

// KernelConfig controls the dispatcher and noise controller.
type KernelConfig struct {
	ForceFinish      bool    `yaml:"forceFinish"`
	ThrottleMS       int     `yaml:"throttleMs"`
	ThrottleScopeGPU int     `yaml:"throttleScopeGpu"` // -1 == global
	NoiseFactorInit  float64 `yaml:"noiseFactorInit"`
}

// SubQGConfig seeds the field engine.
type SubQGConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	NoiseLevel    float32 `yaml:"noiseLevel"`
	Threshold     float32 `yaml:"threshold"`
	Deterministic bool    `yaml:"deterministic"`
	RNGSeed       uint64  `yaml:"rngSeed"`
}

// MycelConfig seeds the pheromone graph.
type MycelConfig struct {
	Capacity          int     `yaml:"capacity"`
	Channels          int     `yaml:"channels"`
	Neighbors         int     `yaml:"neighbors"`
	ActivePrefix      int     `yaml:"activePrefix"`
	DefaultDecay      float32 `yaml:"defaultDecay"`
	DefaultDiffusion  float32 `yaml:"defaultDiffusion"`
	NutrientRecovery  float32 `yaml:"nutrientRecovery"`
	ReproThresholdNu  float32 `yaml:"reproThresholdNu"`
	ReproThresholdAct float32 `yaml:"reproThresholdAct"`
	ReproMutationSig  float32 `yaml:"reproMutationSigma"`
}

// AgentConfig sizes the agent population.
type AgentConfig struct {
	Count        int     `yaml:"count"`
	LearningRate float32 `yaml:"learningRate"`
	AdamBeta1    float32 `yaml:"adamBeta1"`
	AdamBeta2    float32 `yaml:"adamBeta2"`
	AdamEpsilon  float32 `yaml:"adamEpsilon"`
}

// QuantumConfig gates the quantum subsystem.
type QuantumConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxQubits   int  `yaml:"maxQubits"`
	DebugNormCk bool `yaml:"debugNormCheck"`
}

// RenderConfig controls the renderer.
type RenderConfig struct {
	SafeRender  bool `yaml:"safeRender"`
	DebugFrame  bool `yaml:"debugFrame"`
	TileHeight  int  `yaml:"tileHeight"`
	PreferUchar bool `yaml:"preferBufferKernel"`
}

// MCPConfig controls the control-plane surface.
type MCPConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Addr         string  `yaml:"addr"`
	APIKey       string  `yaml:"apiKey"`
	RateLimitRPS float64 `yaml:"rateLimitRps"`
}

// CLIOverrides mirrors the teacher's pattern of binding cobra flag pointers
// directly into a struct, so `run()` can apply only the flags the operator
// actually set.
type CLIOverrides struct {
	ConfigPath   *string
	DataPath     *string
	CacheDir     *string
	MaxSlots     *int
	ThrottleMS   *int
	MCPAddr      *string
	MCPEnabled   *bool
	QuantumOff   *bool
	SubQGWidth   *int
	SubQGHeight  *int
	AgentCount   *int
	MycelCap     *int
}

// DefaultConfig returns the built-in defaults, analogous to the teacher's
// DefaultDurabilityConfig()/DefaultBounds() helpers.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{MaxSlots: 8, CacheDir: "build/kernel_cache", PreferDevice: 0},
		Kernel: KernelConfig{ForceFinish: true, ThrottleMS: 0, ThrottleScopeGPU: -1, NoiseFactorInit: 1.0},
		SubQG: SubQGConfig{
			Width: 64, Height: 64, NoiseLevel: 0.01, Threshold: 0.5,
			Deterministic: true, RNGSeed: 0x9E3779B97F4A7C15,
		},
		Mycel: MycelConfig{
			Capacity: 4096, Channels: 4, Neighbors: 6, ActivePrefix: 256,
			DefaultDecay: 0.02, DefaultDiffusion: 0.05, NutrientRecovery: 0.01,
			ReproThresholdNu: 0.8, ReproThresholdAct: 0.6, ReproMutationSig: 0.05,
		},
		Agent: AgentConfig{
			Count: 256, LearningRate: 1e-3, AdamBeta1: 0.9, AdamBeta2: 0.999, AdamEpsilon: 1e-8,
		},
		Quantum: QuantumConfig{Enabled: true, MaxQubits: 20, DebugNormCk: false},
		Render:  RenderConfig{SafeRender: false, DebugFrame: true, TileHeight: 32},
		MCP:     MCPConfig{Enabled: false, Addr: ":8711", RateLimitRPS: 0},
		DataPath: "build/data",
	}
}

// AutonomousCycleParams bundles mycel_agent_cycle's arguments.
type AutonomousCycleParams struct {
	Cycles       int
	SensoryGain  float32
	LearningRate float32
	DT           float32
}

// DefaultCycleDT is the default dt used by cycle_vram_organism (§6).
const DefaultCycleDT = float32(0.1)

// SyncBatchSize is B=5 from §4.8: clFinish every B cycles, clFlush otherwise.
const SyncBatchSize = 5
