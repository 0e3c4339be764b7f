// Package config loads the array topology — data disk paths,
// parity/qarity file paths, block size, parity level, hash seed,
// autosave budget, and optional mirror endpoint — from a YAML file.
// This is the ambient configuration layer spec.md leaves external;
// grounded on the pack's own YAML config loaders, via gopkg.in/yaml.v3.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arrayvault/snapscrub/mirror"
)

// Disk is one data disk's entry in the array topology.
type Disk struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

// Array is the full array topology a scrub run is configured against.
type Array struct {
	Disks       []Disk `yaml:"disks"`
	ParityPath  string `yaml:"parity_path"`
	QarityPath  string `yaml:"qarity_path,omitempty"`
	Level       int    `yaml:"level"`
	BlockSize   int64  `yaml:"block_size"`
	HashSeedHex string `yaml:"hash_seed_hex,omitempty"`

	AutosaveBytes uint64 `yaml:"autosave_bytes"`

	Mirror mirror.Config `yaml:"mirror,omitempty"`
}

// HashSeed decodes HashSeedHex into the 32-byte HighwayHash key,
// defaulting to the zero key when unset.
func (a Array) HashSeed() ([32]byte, error) {
	var seed [32]byte
	if a.HashSeedHex == "" {
		return seed, nil
	}
	b, err := hex.DecodeString(a.HashSeedHex)
	if err != nil {
		return seed, fmt.Errorf("config: hash_seed_hex: %w", err)
	}
	if len(b) != len(seed) {
		return seed, fmt.Errorf("config: hash_seed_hex must decode to %d bytes, got %d", len(seed), len(b))
	}
	copy(seed[:], b)
	return seed, nil
}

// Load reads and validates an Array topology from a YAML file at path.
func Load(path string) (*Array, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var a Array
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a Array) validate() error {
	if len(a.Disks) == 0 {
		return fmt.Errorf("config: at least one data disk is required")
	}
	if a.ParityPath == "" {
		return fmt.Errorf("config: parity_path is required")
	}
	if a.Level != 1 && a.Level != 2 {
		return fmt.Errorf("config: level must be 1 or 2, got %d", a.Level)
	}
	if a.Level == 2 && a.QarityPath == "" {
		return fmt.Errorf("config: qarity_path is required when level is 2")
	}
	if a.BlockSize <= 0 {
		return fmt.Errorf("config: block_size must be positive")
	}
	return nil
}
