// Package clffi binds the subset of the OpenCL 1.2/2.0 C API the driver
// needs, loaded dynamically via purego (no cgo). This mirrors a dynamic
// native-library loader: discover a platform-appropriate shared object,
// Dlopen it once, and RegisterLibFunc every entry point once, on the first Load.
package clffi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "clffi")

// ErrLibraryNotFound is returned when no OpenCL ICD loader can be located.
var ErrLibraryNotFound = errors.New("OpenCL shared library (ICD loader) not found")

var (
	libOnce sync.Once
	libPtr  uintptr
	libErr  error
	fn      functionTable
)

// Load lazily Dlopen's the OpenCL ICD loader and binds every function the
// driver uses. Safe to call repeatedly; only the first call does work.
func Load() error {
	libOnce.Do(func() {
		path, err := findOpenCL()
		if err != nil {
			libErr = err
			return
		}
		ptr, err := dlopen(path)
		if err != nil {
			libErr = fmt.Errorf("dlopen %s: %w", path, err)
			return
		}
		libPtr = ptr
		bindAll(ptr, &fn)
		log.WithField("path", path).Info("loaded OpenCL ICD loader")
	})
	return libErr
}

// findOpenCL locates the platform's OpenCL ICD loader shared object.
func findOpenCL() (string, error) {
	var name string
	switch runtime.GOOS {
	case "windows":
		name = "OpenCL.dll"
	case "darwin":
		name = "OpenCL.framework/OpenCL"
	default:
		name = "libOpenCL.so.1"
	}
	if p, err := findLibrary(name, runtime.GOOS); err == nil {
		return p, nil
	}
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		if p, err := findLibrary("libOpenCL.so", runtime.GOOS); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: searched %v", ErrLibraryNotFound, libDirs(runtime.GOOS))
}

func findLibrary(name, goos string) (string, error) {
	for _, dir := range libDirs(goos) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}

func libDirs(goos string) []string {
	dirs := []string{"/usr/lib", "/usr/local/lib", "/usr/lib/x86_64-linux-gnu"}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	switch goos {
	case "darwin":
		dirs = append(dirs, "/System/Library/Frameworks", "/opt/homebrew/lib")
	case "windows":
		if sys := os.Getenv("SYSTEMROOT"); sys != "" {
			dirs = append(dirs, filepath.Join(sys, "System32"))
		}
	}

	for _, envKey := range []string{"LD_LIBRARY_PATH", "DYLD_LIBRARY_PATH"} {
		if v := os.Getenv(envKey); v != "" {
			dirs = append(dirs, strings.Split(v, ":")...)
		}
	}
	if goos == "windows" {
		if v := os.Getenv("PATH"); v != "" {
			dirs = append(dirs, strings.Split(v, ";")...)
		}
	}
	return dirs
}

// IsAvailable reports whether an OpenCL ICD loader can be located without
// loading it — used by tests/CLI to decide whether to exercise the CPU
// fallback paths instead.
func IsAvailable() bool {
	_, err := findOpenCL()
	return err == nil
}

func registerFunc(fptr interface{}, lib uintptr, name string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("symbol", name).Warn("OpenCL symbol not found in ICD loader")
		}
	}()
	purego.RegisterLibFunc(fptr, lib, name)
}
