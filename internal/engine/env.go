package engine

import "os"

// DefaultBinary is the engine executable when nothing else is configured.
const DefaultBinary = "lmp"

// BinaryEnv overrides the configured engine binary.
const BinaryEnv = "LAMMPS"

// Device labels.
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// ResolveBinary picks the engine executable: an explicit choice (e.g. a
// command-line flag) first, then $LAMMPS, then the configured binary, then
// DefaultBinary.
func ResolveBinary(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(BinaryEnv); env != "" {
		return env
	}
	if configured != "" {
		return configured
	}
	return DefaultBinary
}

// Environment returns the environment entries for a run on device, with
// extra appended last so it can override the defaults. The pair style
// prints its neighbor diagnostics only at debug log level; a cpu run hides
// every GPU from the engine.
func Environment(device string, extra map[string]string) []string {
	env := []string{"_NEQUIP_LOG_LEVEL=DEBUG"}
	if device == DeviceCPU {
		env = append(env, "CUDA_VISIBLE_DEVICES=")
	}
	for _, k := range sortedKeys(extra) {
		env = append(env, k+"="+extra[k])
	}
	return env
}
