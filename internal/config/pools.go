package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"poolNotifier/internal/model"
)

// LoadPoolsFile reads pool configurations from a YAML or JSON file.
// JSON arrays are valid YAML, so both formats go through the same decoder.
func LoadPoolsFile(path string) ([]model.PoolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pools file: %w", err)
	}
	return ParsePools(data)
}

// ParsePools decodes either a top-level list of pools or a document with a
// "pools" key holding that list.
func ParsePools(data []byte) ([]model.PoolConfig, error) {
	var list []model.PoolConfig
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Pools []model.PoolConfig `yaml:"pools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pools: %w", err)
	}
	return doc.Pools, nil
}

// ValidatePools checks every pool and rejects duplicate names.
func ValidatePools(pools []model.PoolConfig, production bool) error {
	if len(pools) == 0 {
		return fmt.Errorf("no pools configured")
	}
	seen := make(map[string]struct{}, len(pools))
	for _, pool := range pools {
		if err := pool.Validate(production); err != nil {
			return err
		}
		if _, ok := seen[pool.Name]; ok {
			return fmt.Errorf("duplicate pool name: %s", pool.Name)
		}
		seen[pool.Name] = struct{}{}
	}
	return nil
}
