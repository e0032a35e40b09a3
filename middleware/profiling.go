package middleware

import (
	"fmt"
	"os"

	"github.com/grafana/pyroscope-go"

	"github.com/sparknet/session-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts continuous profiling against the configured
// Pyroscope endpoint.
func InitProfiling(cfg *config.Config) error {
	hostname, _ := os.Hostname()

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.Service.Name,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"env":      cfg.Service.Env,
			"version":  cfg.Service.Version,
			"hostname": hostname,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return fmt.Errorf("start pyroscope: %w", err)
	}

	profiler = p
	return nil
}

// StopProfiling flushes and stops the profiler if it was started.
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
