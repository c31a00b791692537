package config

// ManifestFile is the parsed upgr.toml project file: package identity,
// contract aliases, dependency requirements and network endpoints.
type ManifestFile struct {
	Project      ProjectConfig             `toml:"project"`
	Contracts    map[string]string         `toml:"contracts"`
	Dependencies map[string]string         `toml:"dependencies"`
	Networks     map[string]NetworkConfig  `toml:"networks"`
}

// ProjectConfig is the [project] section of upgr.toml.
type ProjectConfig struct {
	Name      string `toml:"name"`
	Version   string `toml:"version"`
	Published bool   `toml:"published"`
}

// NetworkConfig is one [networks.<name>] section of upgr.toml. The
// collaborator contracts (app, package, proxy admin, proxy factory) are
// deployed out of band; their addresses are configuration.
type NetworkConfig struct {
	ChainID        uint64 `toml:"chain_id"`
	RPCURL         string `toml:"rpc_url"`
	ExplorerURL    string `toml:"explorer_url"`
	AppAddress     string `toml:"app_address"`
	PackageAddress string `toml:"package_address"`
	AdminAddress   string `toml:"admin_address"`
	FactoryAddress string `toml:"factory_address"`
}
