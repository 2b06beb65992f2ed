// Command driverctl is an operator REPL/CLI for driverd, adapted from the
// teacher's qubicdb-cli admin-client shape: cache inspection replaces the
// teacher's HTTP admin routes since driverd exposes no REST surface of its
// own (control happens over MCP).
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	var cacheDir string

	rootCmd := &cobra.Command{
		Use:   "driverctl",
		Short: "driverctl — operator tooling for the Mycelia GPU compute driver",
		Long:  "Inspects the on-disk kernel binary cache and drops into an interactive shell when run with no subcommand.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runREPL(cacheDir)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Kernel binary cache directory (overrides CC_DEVICE_CACHE_DIR)")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Kernel binary cache inspection",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List cached kernel binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheLS(resolveCacheDir(cacheDir))
		},
	})

	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Prune cache entries older than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, _ := cmd.Flags().GetString("older-than")
			return cacheGC(resolveCacheDir(cacheDir), olderThan)
		},
	}
	gcCmd.Flags().String("older-than", "7d", "Prune entries with mtime older than this duration (e.g. 7d, 24h)")
	cacheCmd.AddCommand(gcCmd)

	rootCmd.AddCommand(cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveCacheDir(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv("CC_DEVICE_CACHE_DIR"); v != "" {
		return v
	}
	return "build/kernel_cache"
}

// cacheLS lists *.bin entries in dir with size and age, newest first.
func cacheLS(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("%s does not exist yet (no kernels compiled)\n", dir)
			return nil
		}
		return err
	}
	type row struct {
		name    string
		size    int64
		modTime time.Time
	}
	var rows []row
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rows = append(rows, row{e.Name(), info.Size(), info.ModTime()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].modTime.After(rows[j].modTime) })

	if len(rows) == 0 {
		fmt.Printf("%s: no cached kernel binaries\n", dir)
		return nil
	}
	fmt.Printf("%-40s %10s   %s\n", "NAME", "SIZE", "AGE")
	for _, r := range rows {
		fmt.Printf("%-40s %10d   %s\n", r.name, r.size, time.Since(r.modTime).Round(time.Second))
	}
	return nil
}

// cacheGC deletes *.bin entries older than olderThan (e.g. "7d", "24h").
func cacheGC(dir, olderThan string) error {
	d, err := parseDays(olderThan)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("%s does not exist, nothing to prune\n", dir)
			return nil
		}
		return err
	}
	cutoff := time.Now().Add(-d)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				fmt.Fprintf(os.Stderr, "failed to remove %s: %v\n", path, err)
				continue
			}
			removed++
		}
	}
	fmt.Printf("removed %d stale kernel cache entr%s from %s\n", removed, plural(removed), dir)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// parseDays accepts either a Go duration string ("24h") or a "<N>d" suffix.
func parseDays(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func runREPL(cacheDirFlag string) {
	dir := resolveCacheDir(cacheDirFlag)
	fmt.Println("driverctl — type 'help' for commands, 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("driverctl> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return
		case line == "help":
			fmt.Println("  cache ls            list cached kernel binaries")
			fmt.Println("  cache gc [Nd]       prune entries older than N days (default 7d)")
			fmt.Println("  quit                exit")
		case line == "cache ls":
			if err := cacheLS(dir); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		case strings.HasPrefix(line, "cache gc"):
			olderThan := "7d"
			if fields := strings.Fields(line); len(fields) == 3 {
				olderThan = fields[2]
			}
			if err := cacheGC(dir, olderThan); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		default:
			fmt.Printf("unknown command %q (try 'help')\n", line)
		}
	}
}
