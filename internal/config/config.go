// Package config loads the YAML configuration file the CLI and any
// long-running decode service reads its node/database/provider settings
// from, following the loader shape joacorob-etl-evm-chain's internal/config
// package uses for its own RPC/storage configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	yaml "gopkg.in/yaml.v2"
)

// RetryConfig holds the retry settings read from the file. No provider in
// this module reads them: node calls are made once, without retry.
type RetryConfig struct {
	Attempts int `yaml:"attempts"`
	DelayMS  int `yaml:"delay_ms"`
}

// EtherscanConfig configures the contract-source provider.
type EtherscanConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// FourByteConfig configures the signature-guessing directory.
type FourByteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Config is the full set of settings a decode run needs.
type Config struct {
	ChainID    string          `yaml:"chain_id"`
	RPCURL     string          `yaml:"rpc_url"`
	DatabasePath string        `yaml:"database_path"`
	Retry      RetryConfig     `yaml:"retry"`
	Etherscan  EtherscanConfig `yaml:"etherscan"`
	FourByte   FourByteConfig  `yaml:"four_byte"`
	Workers    int             `yaml:"workers"`
}

// Load reads and unmarshals the configuration file at path, filling in
// defaults the way joacorob-etl-evm-chain's loader does for retry/workers.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc_url is required")
	}
	if cfg.ChainID == "" {
		cfg.ChainID = "1"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "ethtx.db"
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.DelayMS == 0 {
		cfg.Retry.DelayMS = 1500
	}
	if cfg.FourByte.BaseURL == "" {
		cfg.FourByte.BaseURL = "https://www.4byte.directory/api/v1"
	}
	if cfg.Etherscan.BaseURL == "" {
		cfg.Etherscan.BaseURL = "https://api.etherscan.io/api"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}
	}

	return &cfg, nil
}
