// Package gateway holds the runtime state of the hermes gateway daemon:
// its PID-file liveness record and the background directory refresh loop.
package gateway

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// processState classifies the result of a signal-0 existence check.
type processState int

const (
	processAlive processState = iota
	processGone
	processDenied
)

// PIDFile is the file-backed liveness record of the gateway daemon.
// It holds at most one PID; writers overwrite, readers that find a stale
// record delete it.
type PIDFile struct {
	path string
}

// NewPIDFile returns a liveness record stored at path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// DefaultPIDPath is <hermes home>/gateway.pid.
func DefaultPIDPath() string { return config.PIDPath() }

// Path returns the record location.
func (p *PIDFile) Path() string { return p.path }

// Write records the current process as the running gateway.
func (p *PIDFile) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("gateway: creating pid dir: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("gateway: writing pid file: %w", err)
	}
	return nil
}

// Remove deletes the record. It never fails: a PID file that cannot be
// cleaned up must not block shutdown.
func (p *PIDFile) Remove() {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.DebugCF("gateway", "PID file removal failed", map[string]interface{}{
			"path":  p.path,
			"error": err.Error(),
		})
	}
}

// ReadPID returns the recorded PID without probing the process.
func (p *PIDFile) ReadPID() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(string(data))
	// pid_t is 32 bits; larger values would wrap to 0 or -1 in kill(2)
	pid, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("gateway: malformed pid %q", raw)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("gateway: invalid pid %d", pid)
	}
	return int(pid), nil
}

// IsGatewayRunning reports whether the recorded process exists. Missing,
// malformed and stale records all yield false; malformed and stale records
// are deleted as a side effect.
func (p *PIDFile) IsGatewayRunning() bool {
	if _, err := os.Stat(p.path); err != nil {
		return false
	}

	pid, err := p.ReadPID()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Replaced or removed between stat and read.
			return false
		}
		logger.DebugCF("gateway", "Discarding malformed PID file", map[string]interface{}{
			"path":  p.path,
			"error": err.Error(),
		})
		p.Remove()
		return false
	}

	switch checkProcess(pid) {
	case processAlive:
		return true
	case processDenied:
		// TODO: confirm with the gateway owners whether EPERM (process alive,
		// owned by another user) should count as running instead of stale.
		logger.WarnCF("gateway", "PID owned by another user, treating record as stale", map[string]interface{}{
			"path": p.path,
			"pid":  pid,
		})
	}
	p.Remove()
	return false
}
