package device

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/mycelia-sim/ccdriver/pkg/clffi"
	"github.com/mycelia-sim/ccdriver/pkg/core"
)

const cacheMagic uint32 = 0x4D59434C
const cacheVersion uint32 = 1

// BuildOptions derives the -cl-std / capability-define / fast-math option
// string for a device, per §4.1.
func BuildOptions(caps core.BuildCaps, fastMath bool) string {
	std := "CL1.2"
	if caps.CLVersionAtLeast(2, 0) {
		std = "CL2.0"
	}
	opts := fmt.Sprintf("-cl-std=%s -Werror -DFP_TYPE=float -DFP_TYPE_SIZE=4", std)
	if caps.FP64 {
		opts += " -DCL_HAS_FP64"
	}
	if caps.Atomics32 {
		opts += " -DCL_HAS_ATOMICS"
	}
	if caps.Atomics64 {
		opts += " -DCL_HAS_INT64_ATOMICS"
	}
	if fastMath {
		opts += " -DENABLE_FAST_VARIANT=1 -cl-fast-relaxed-math -cl-mad-enable -cl-no-signed-zeros -cl-unsafe-math-optimizations -DFAST_MATH"
	} else {
		opts += " -DENABLE_FAST_VARIANT=0"
	}
	return opts
}

func fnv1a64(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// cacheKey combines source and build-option hashes per §4.1: "source_hash ^
// (build_hash<<1) XOR a fast-math magic when enabled".
func cacheKey(sourceHash, buildHash uint64, fastMath bool) uint64 {
	key := sourceHash ^ (buildHash << 1)
	if fastMath {
		key ^= 0xFA57AA7FFA57AA7F
	}
	return key
}

func cacheFilePath(cacheDir string, tag core.DeviceTag, kernel string, key uint64) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s_%016x.bin", tag, kernel, key))
}

// loadCachedBinary reads and validates a kernel-cache file, returning the
// raw program binary on a magic/version/build-hash match.
func loadCachedBinary(path string, buildHash uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ErrCacheMiss
	}
	defer f.Close()

	var hdr struct {
		Magic, Version uint32
		BinarySize, BuildHash uint64
	}
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, core.ErrCacheInvalid
	}
	if hdr.Magic != cacheMagic || hdr.Version != cacheVersion {
		return nil, core.ErrCacheInvalid
	}
	if hdr.BuildHash != buildHash {
		return nil, core.ErrCacheMiss
	}
	buf := make([]byte, hdr.BinarySize)
	if _, err := f.Read(buf); err != nil {
		return nil, core.ErrCacheInvalid
	}
	return buf, nil
}

// storeCachedBinary writes a successfully-built program binary to disk,
// silently discarded on a later mismatch by loadCachedBinary.
func storeCachedBinary(path string, buildHash uint64, binaryBlob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := struct {
		Magic, Version uint32
		BinarySize, BuildHash uint64
	}{cacheMagic, cacheVersion, uint64(len(binaryBlob)), buildHash}
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	_, err = f.Write(binaryBlob)
	return err
}

// CompileKernel builds (or reuses a cached binary for) one kernel name in
// both strict and fast-math variants, per §4.1. The fast variant is left nil
// if its build fails — callers fall back to strict.
func CompileKernel(slot *core.DeviceSlot, cacheDir, source, name string) (*core.KernelVariantPair, error) {
	sourceHash := fnv1a64([]byte(source))
	pair := &core.KernelVariantPair{}

	strict, err := compileVariant(slot, cacheDir, source, name, sourceHash, false)
	if err != nil {
		return nil, core.NewError(core.KindAllocation, "strict kernel build failed: "+name, err, 0)
	}
	pair.Strict = strict

	if fast, err := compileVariant(slot, cacheDir, source, name, sourceHash, true); err == nil {
		pair.Fast = fast
	} else {
		log.WithField("kernel", name).WithField("err", err).Warn("fast-math variant build failed, falling back to strict")
	}

	slot.Programs[name] = pair
	return pair, nil
}

func compileVariant(slot *core.DeviceSlot, cacheDir, source, name string, sourceHash uint64, fastMath bool) (*core.KernelVariant, error) {
	opts := BuildOptions(slot.Caps, fastMath)
	buildHash := fnv1a64([]byte(opts))
	key := cacheKey(sourceHash, buildHash, fastMath)
	path := cacheFilePath(cacheDir, slot.Tag, name, key)

	if blob, err := loadCachedBinary(path, buildHash); err == nil {
		if prog, kern, err := loadFromBinary(slot, blob, name); err == nil {
			return &core.KernelVariant{Program: prog, Kernel: kern, IsFastMath: fastMath, SourceHash: sourceHash, BuildHash: buildHash}, nil
		}
	}

	prog, err := clffi.CreateProgramWithSource(slot.Context, source)
	if err != nil {
		return nil, err
	}
	if err := clffi.BuildProgram(prog, slot.DeviceID, opts); err != nil {
		clffi.ReleaseProgram(prog)
		return nil, err
	}
	kern, err := clffi.CreateKernel(prog, name)
	if err != nil {
		clffi.ReleaseProgram(prog)
		return nil, err
	}

	if sizes, err := clffi.ProgramBinarySizes(prog, 1); err == nil && len(sizes) == 1 && sizes[0] > 0 {
		if blob, err := clffi.ProgramBinary(prog, sizes[0]); err == nil {
			if err := storeCachedBinary(path, buildHash, blob); err != nil {
				log.WithField("kernel", name).WithField("err", err).Warn("kernel cache write failed")
			}
		}
	}

	return &core.KernelVariant{Program: prog, Kernel: kern, IsFastMath: fastMath, SourceHash: sourceHash, BuildHash: buildHash}, nil
}

func loadFromBinary(slot *core.DeviceSlot, blob []byte, name string) (uintptr, uintptr, error) {
	prog, err := clffi.CreateProgramWithBinary(slot.Context, slot.DeviceID, blob)
	if err != nil {
		return 0, 0, err
	}
	if err := clffi.BuildProgram(prog, slot.DeviceID, ""); err != nil {
		clffi.ReleaseProgram(prog)
		return 0, 0, err
	}
	kern, err := clffi.CreateKernel(prog, name)
	if err != nil {
		clffi.ReleaseProgram(prog)
		return 0, 0, err
	}
	return prog, kern, nil
}
