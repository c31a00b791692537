package models

import "encoding/json"

// Manifest is the declarative desired state of a project: which contract
// aliases exist, which external packages they depend on, and the package
// version being reconciled. It is owned by the caller and immutable during a
// reconciliation pass.
type Manifest struct {
	// Name is the package name, also the proxy bucket prefix.
	Name string

	// Version is the package semantic version being pushed.
	Version string

	// Published marks the project as registered with an on-chain package;
	// version bumps only force redeploy bookkeeping for published projects.
	Published bool

	// Contracts maps deployment alias to contract name.
	Contracts map[string]string

	// Dependencies maps external package name to a semver requirement.
	// An empty requirement accepts any deployed version.
	Dependencies map[string]string
}

// ContractName resolves an alias to its contract name. The alias itself is
// the fallback for contracts registered without renaming.
func (m *Manifest) ContractName(alias string) string {
	if name, ok := m.Contracts[alias]; ok && name != "" {
		return name
	}
	return alias
}

// Aliases returns all contract aliases declared by the manifest.
func (m *Manifest) Aliases() []string {
	aliases := make([]string, 0, len(m.Contracts))
	for alias := range m.Contracts {
		aliases = append(aliases, alias)
	}
	return aliases
}

// Artifact is a compiled contract produced by the build toolchain. The
// reconciler never inspects bytecode beyond the hashes computed by the
// bytecode oracle.
type Artifact struct {
	// ContractName is the solidity contract or library name.
	ContractName string

	// ABI is the raw ABI JSON of the contract.
	ABI json.RawMessage

	// Bytecode is the creation bytecode, hex encoded.
	Bytecode string

	// DeployedBytecode is the runtime bytecode, hex encoded.
	DeployedBytecode string

	// BytecodeHash is the oracle's digest of the creation bytecode with
	// link references normalized out.
	BytecodeHash string

	// BodyBytecodeHash is the oracle's digest of the runtime bytecode body.
	BodyBytecodeHash string

	// ConstructorCode is the constructor portion of the creation bytecode.
	ConstructorCode string

	// Libraries are the names of solidity libraries the bytecode links
	// against, direct references only.
	Libraries []string

	// StorageLayout is the compiler's storage layout output, used for
	// upgrade-safety validation.
	StorageLayout json.RawMessage

	// IsLibrary marks solidity library artifacts.
	IsLibrary bool
}

// Warning is a single validation oracle finding for a contract.
type Warning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// HasBlocking reports whether any warning in the list blocks deployment.
func HasBlocking(warnings []Warning) bool {
	for _, w := range warnings {
		if w.Blocking {
			return true
		}
	}
	return false
}

// WarningMessages flattens warnings to their messages for persistence in the
// deployment record.
func WarningMessages(warnings []Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	msgs := make([]string, len(warnings))
	for i, w := range warnings {
		msgs[i] = w.Message
	}
	return msgs
}

// ProxyInstance is the deployment backend's description of a freshly created
// proxy.
type ProxyInstance struct {
	Address        string
	Implementation string
	Admin          string
}

// DependencyPublication is the published on-chain deployment of an external
// package on one network.
type DependencyPublication struct {
	Name           string
	Network        string
	PackageAddress string
	Version        string
}
