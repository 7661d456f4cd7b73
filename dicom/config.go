package dicom

import (
	"os"
	"strconv"
)

// Config holds package configuration read from the environment on first use
type Config struct {
	// ReadBufferSize is the number of bytes buffered from the source when
	// parsing
	ReadBufferSize int

	// do not access / write `_set`. It is used internally.
	_set bool
}

func intFromEnvDefault(key string, def int) int {
	valStr, found := os.LookupEnv(key)
	if !found {
		return def
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return def
	}
	return val
}

var config Config

// GetConfig returns the package configuration, setting it from the
// environment if not already set.
func GetConfig() Config {
	if !config._set {
		config.ReadBufferSize = intFromEnvDefault("DICOMCORE_BUFFERSIZE", 1*1024*1024)
		config._set = true
	}
	return config
}

// OverrideConfig replaces the configuration parsed from the environment
func OverrideConfig(newconfig Config) {
	if !newconfig._set {
		newconfig._set = true
	}
	config = newconfig
}
