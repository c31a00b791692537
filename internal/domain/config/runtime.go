package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration.
// This is injected into use cases and contains all resolved settings.
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Manifest is the parsed upgr.toml project file.
	Manifest *ManifestFile
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`

	// Collaborator contract addresses for this network.
	AppAddress     string `json:"appAddress,omitempty"`
	PackageAddress string `json:"packageAddress,omitempty"`
	AdminAddress   string `json:"adminAddress,omitempty"`
	FactoryAddress string `json:"factoryAddress,omitempty"`
}
