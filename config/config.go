// Package config loads schedcore's boot-time configuration: process
// table size, open-file-table size, simulated CPU count, and the
// active scheduling policy. It replaces the original's compile-time
// policy selection with a small JSON file resolved via the XDG base
// directory spec, matching how a real kernel's boot parameters would
// live outside the binary rather than behind a build tag.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Policy names accepted in the boot config and on the CLI.
const (
	PolicyFCFS = "FCFS"
	PolicyRR   = "RR"
	PolicyPBS  = "PBS"
	PolicyMLFQ = "MLFQ"
)

// Boot is schedcore's boot-time configuration.
type Boot struct {
	NProc   int    `json:"nproc"`
	NOFile  int    `json:"nofile"`
	NCPU    int    `json:"ncpu"`
	Policy  string `json:"policy"`
}

// Default returns the out-of-the-box boot configuration: 64 process
// slots, 16 open files per process, one CPU, round-robin scheduling.
func Default() Boot {
	return Boot{NProc: 64, NOFile: 16, NCPU: 1, Policy: PolicyRR}
}

// path returns the XDG-resolved location of the boot config file.
func path() (string, error) {
	return xdg.ConfigFile(filepath.Join("schedcore", "boot.json"))
}

// Load reads the boot config from its XDG config location, falling
// back to Default() if the file does not exist. A malformed file is
// reported as an error rather than silently ignored.
func Load() (Boot, error) {
	p, err := path()
	if err != nil {
		return Boot{}, fmt.Errorf("config: resolve path: %s", err)
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Boot{}, fmt.Errorf("config: read %s: %s", p, err)
	}

	var b Boot
	if err := json.Unmarshal(data, &b); err != nil {
		return Boot{}, fmt.Errorf("config: parse %s: %s", p, err)
	}
	if err := b.Validate(); err != nil {
		return Boot{}, fmt.Errorf("config: %s: %s", p, err)
	}
	return b, nil
}

// Save writes b to its XDG config location as indented JSON.
func Save(b Boot) error {
	if err := b.Validate(); err != nil {
		return err
	}
	p, err := path()
	if err != nil {
		return fmt.Errorf("config: resolve path: %s", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Validate reports whether b describes a usable boot configuration.
func (b Boot) Validate() error {
	if b.NProc <= 0 {
		return fmt.Errorf("nproc must be positive, got %d", b.NProc)
	}
	if b.NOFile <= 0 {
		return fmt.Errorf("nofile must be positive, got %d", b.NOFile)
	}
	if b.NCPU <= 0 {
		return fmt.Errorf("ncpu must be positive, got %d", b.NCPU)
	}
	switch b.Policy {
	case PolicyFCFS, PolicyRR, PolicyPBS, PolicyMLFQ:
	default:
		return fmt.Errorf("unknown policy %q", b.Policy)
	}
	return nil
}
