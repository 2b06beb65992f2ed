// Command driverd hosts the MCP control-plane surface (pkg/mcpctl) over a
// single in-process Driver, following the teacher's cobra+YAML+env config
// hierarchy and graceful-shutdown sequencing.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mycelia-sim/ccdriver/pkg/core"
	"github.com/mycelia-sim/ccdriver/pkg/driver"
	"github.com/mycelia-sim/ccdriver/pkg/mcpctl"
)

var log = logrus.WithField("component", "driverd")

func main() {
	var cliOverrides core.CLIOverrides

	rootCmd := &cobra.Command{
		Use:   "driverd",
		Short: "Mycelia GPU compute driver daemon",
		Long:  "Hosts the SubQG/Mycel/agent/quantum simulation stack behind an MCP control-plane surface.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), &cliOverrides)
		},
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	cliOverrides.ConfigPath = f.StringP("config", "f", "", "Path to YAML config file (overrides CC_CONFIG env)")
	cliOverrides.DataPath = f.String("data-path", "", "Data directory for saved mycel states")
	cliOverrides.CacheDir = f.String("cache-dir", "", "Kernel binary cache directory")
	cliOverrides.MaxSlots = f.Int("max-slots", 0, "Maximum concurrent device slots")
	cliOverrides.ThrottleMS = f.Int("throttle-ms", 0, "Post-enqueue throttle in milliseconds")
	cliOverrides.MCPAddr = f.String("mcp-addr", "", "MCP server listen address")
	cliOverrides.MCPEnabled = f.Bool("mcp", false, "Enable the MCP control-plane surface")
	cliOverrides.QuantumOff = f.Bool("no-quantum", false, "Disable the quantum subsystem")
	cliOverrides.SubQGWidth = f.Int("subqg-width", 0, "SubQG field width")
	cliOverrides.SubQGHeight = f.Int("subqg-height", 0, "SubQG field height")
	cliOverrides.AgentCount = f.Int("agent-count", 0, "Agent population size")
	cliOverrides.MycelCap = f.Int("mycel-capacity", 0, "Mycel node capacity")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet, o *core.CLIOverrides) error {
	core.PrintBanner()

	configPath := ""
	if o.ConfigPath != nil && *o.ConfigPath != "" {
		configPath = *o.ConfigPath
	} else {
		configPath = os.Getenv("CC_CONFIG")
	}

	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyExplicitFlags(flags, &cfg, o)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.WithFields(logrus.Fields{
		"dataPath": cfg.DataPath,
		"mcpAddr":  cfg.MCP.Addr,
		"quantum":  cfg.Quantum.Enabled,
	}).Info("starting driverd")

	d := driver.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	var httpServer *http.Server
	if cfg.MCP.Enabled {
		handler := mcpctl.NewHandler(d)
		httpServer = &http.Server{Addr: cfg.MCP.Addr, Handler: handler}
		go func() {
			log.WithField("addr", cfg.MCP.Addr).Info("MCP server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithField("err", err).Error("MCP server error")
			}
		}()
	} else {
		log.Info("MCP surface disabled (enable with --mcp or CC_MCP_ENABLED=true)")
	}

	log.Info("driverd is ready")
	core.WaitForShutdown(ctx, cancel)

	log.Info("initiating graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithField("err", err).Warn("MCP server shutdown error")
		}
	}

	log.Info("driverd shutdown complete")
	return nil
}

// applyExplicitFlags applies only the CLI flags the operator actually set,
// so unset flags fall through to YAML/env-resolved values.
func applyExplicitFlags(flags *pflag.FlagSet, cfg *core.Config, o *core.CLIOverrides) {
	if flags.Changed("data-path") {
		cfg.DataPath = *o.DataPath
	}
	if flags.Changed("cache-dir") {
		cfg.Device.CacheDir = *o.CacheDir
	}
	if flags.Changed("max-slots") {
		cfg.Device.MaxSlots = *o.MaxSlots
	}
	if flags.Changed("throttle-ms") {
		cfg.Kernel.ThrottleMS = *o.ThrottleMS
	}
	if flags.Changed("mcp-addr") {
		cfg.MCP.Addr = *o.MCPAddr
	}
	if flags.Changed("mcp") {
		cfg.MCP.Enabled = *o.MCPEnabled
	}
	if flags.Changed("no-quantum") && *o.QuantumOff {
		cfg.Quantum.Enabled = false
	}
	if flags.Changed("subqg-width") {
		cfg.SubQG.Width = *o.SubQGWidth
	}
	if flags.Changed("subqg-height") {
		cfg.SubQG.Height = *o.SubQGHeight
	}
	if flags.Changed("agent-count") {
		cfg.Agent.Count = *o.AgentCount
	}
	if flags.Changed("mycel-capacity") {
		cfg.Mycel.Capacity = *o.MycelCap
	}
}
