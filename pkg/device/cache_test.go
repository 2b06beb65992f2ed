package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mycelia-sim/ccdriver/pkg/core"
)

func TestBuildOptionsCapabilityDefines(t *testing.T) {
	caps := core.BuildCaps{FP64: true, Atomics32: true, CLVersionMajor: 2}
	opts := BuildOptions(caps, false)
	for _, want := range []string{"-cl-std=CL2.0", "-DCL_HAS_FP64", "-DCL_HAS_ATOMICS", "-DENABLE_FAST_VARIANT=0"} {
		if !containsWord(opts, want) {
			t.Fatalf("expected build options %q to contain %q", opts, want)
		}
	}
	fast := BuildOptions(caps, true)
	if !containsWord(fast, "-cl-fast-relaxed-math") {
		t.Fatalf("fast-math options missing -cl-fast-relaxed-math: %q", fast)
	}
}

func TestCacheKeyDistinguishesFastMath(t *testing.T) {
	a := cacheKey(1, 2, false)
	b := cacheKey(1, 2, true)
	if a == b {
		t.Fatalf("cacheKey should differ between strict and fast-math variants")
	}
}

func TestKernelCacheDeterminism(t *testing.T) {
	dir := t.TempDir()
	source := "__kernel void foo(__global float* x) { x[get_global_id(0)] *= 2.0f; }"
	sourceHash := fnv1a64([]byte(source))
	buildHash := fnv1a64([]byte("-cl-std=CL1.2"))
	key := cacheKey(sourceHash, buildHash, false)
	path := cacheFilePath(dir, core.DeviceTag("gpu0_test"), "foo", key)

	blob := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := storeCachedBinary(path, buildHash, blob); err != nil {
		t.Fatalf("storeCachedBinary: %v", err)
	}

	got, err := loadCachedBinary(path, buildHash)
	if err != nil {
		t.Fatalf("loadCachedBinary: %v", err)
	}
	if len(got) != len(blob) {
		t.Fatalf("round-tripped binary length = %d, want %d", len(got), len(blob))
	}
	for i := range blob {
		if got[i] != blob[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], blob[i])
		}
	}

	// Mutating one byte of the source invalidates the cache (different key).
	mutatedHash := fnv1a64([]byte("__kernel void foo(__global float* x) { x[get_global_id(0)] *= 3.0f; }"))
	mutatedKey := cacheKey(mutatedHash, buildHash, false)
	if mutatedKey == key {
		t.Fatalf("source mutation should change the cache key")
	}
	mutatedPath := cacheFilePath(dir, core.DeviceTag("gpu0_test"), "foo", mutatedKey)
	if _, err := os.Stat(mutatedPath); err == nil {
		t.Fatalf("mutated-source cache file should not exist yet")
	}
}

func TestLoadCachedBinaryRejectsMagicMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Wrong magic.
	f.Write([]byte{0, 0, 0, 0, 1, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	f.Close()

	if _, err := loadCachedBinary(path, 0); err != core.ErrCacheInvalid {
		t.Fatalf("expected ErrCacheInvalid, got %v", err)
	}
}

func TestParseCLVersion(t *testing.T) {
	cases := map[string][2]int{
		"OpenCL C 2.0":                {2, 0},
		"OpenCL 1.2 Mesa 23.0":        {1, 2},
		"OpenCL C 3.0 (CLC 3.0 Mesa)": {3, 0},
	}
	for s, want := range cases {
		maj, min := parseCLVersion(s)
		if maj != want[0] || min != want[1] {
			t.Errorf("parseCLVersion(%q) = %d.%d, want %d.%d", s, maj, min, want[0], want[1])
		}
	}
}
