package ethereum

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/upgradehq/upgr-cli/internal/domain/config"
	"github.com/upgradehq/upgr-cli/internal/domain/models"
	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// EIP-1967 well-known storage slots.
var (
	implementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	adminSlot          = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
)

// Minimal ABIs of the collaborator contracts this backend drives. The
// contracts themselves are deployed out of band; their addresses come from
// network configuration. The app contract exposes both the directory and
// the version surface, so both ABIs bind to the app address.
const (
	directoryABI = `[
		{"type":"function","name":"setImplementation","inputs":[{"name":"name","type":"string"},{"name":"implementation","type":"address"}],"outputs":[]},
		{"type":"function","name":"unsetImplementation","inputs":[{"name":"name","type":"string"}],"outputs":[]},
		{"type":"function","name":"getImplementation","inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
	]`
	appABI = `[
		{"type":"function","name":"setPackage","inputs":[{"name":"name","type":"string"},{"name":"pkg","type":"address"},{"name":"version","type":"string"}],"outputs":[]},
		{"type":"function","name":"unsetPackage","inputs":[{"name":"name","type":"string"}],"outputs":[]},
		{"type":"function","name":"getPackage","inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"}
	]`
	adminABI = `[
		{"type":"function","name":"upgrade","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"}],"outputs":[]},
		{"type":"function","name":"upgradeAndCall","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[]},
		{"type":"function","name":"changeProxyAdmin","inputs":[{"name":"proxy","type":"address"},{"name":"newAdmin","type":"address"}],"outputs":[]},
		{"type":"function","name":"transferOwnership","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]}
	]`
	factoryABI = `[
		{"type":"function","name":"deployProxy","inputs":[{"name":"admin","type":"address"},{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"deploySalted","inputs":[{"name":"salt","type":"bytes32"},{"name":"admin","type":"address"},{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"deployMinimal","inputs":[{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"address"}]},
		{"type":"function","name":"getDeploymentAddress","inputs":[{"name":"salt","type":"bytes32"},{"name":"sender","type":"address"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
		{"type":"event","name":"ProxyCreated","inputs":[{"name":"proxy","type":"address","indexed":false}],"anonymous":false}
	]`
)

// Backend drives the on-chain collaborator contracts over JSON-RPC. It
// serializes transactions through a single transactor; the reconciler may
// call it from concurrent batch operations.
type Backend struct {
	network *config.Network
	log     *slog.Logger

	mu     sync.Mutex
	client *ethclient.Client
	auth   *bind.TransactOpts

	directory abi.ABI
	app       abi.ABI
	admin     abi.ABI
	factory   abi.ABI
}

// NewBackend creates a deployment backend for the configured network. The
// RPC connection is established lazily so record-only commands never dial.
func NewBackend(cfg *config.RuntimeConfig, log *slog.Logger) (*Backend, error) {
	b := &Backend{network: cfg.Network, log: log}
	var err error
	if b.directory, err = abi.JSON(strings.NewReader(directoryABI)); err != nil {
		return nil, err
	}
	if b.app, err = abi.JSON(strings.NewReader(appABI)); err != nil {
		return nil, err
	}
	if b.admin, err = abi.JSON(strings.NewReader(adminABI)); err != nil {
		return nil, err
	}
	if b.factory, err = abi.JSON(strings.NewReader(factoryABI)); err != nil {
		return nil, err
	}
	return b, nil
}

// connect dials the RPC endpoint and prepares the transactor on first use.
func (b *Backend) connect(ctx context.Context) (*ethclient.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}
	if b.network == nil || b.network.RPCURL == "" {
		return nil, fmt.Errorf("no network configured: pass --network with an rpc_url in upgr.toml")
	}
	client, err := ethclient.DialContext(ctx, b.network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", b.network.Name, err)
	}

	if raw := os.Getenv("UPGR_PRIVATE_KEY"); raw != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid UPGR_PRIVATE_KEY: %w", err)
		}
		chainID := new(big.Int).SetUint64(b.network.ChainID)
		auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
		if err != nil {
			return nil, err
		}
		auth.Context = ctx
		b.auth = auth
	}

	b.client = client
	return client, nil
}

// transactor returns the signing transactor, failing when no key is set.
func (b *Backend) transactor(ctx context.Context) (*ethclient.Client, *bind.TransactOpts, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.auth == nil {
		return nil, nil, fmt.Errorf("no signing key: set UPGR_PRIVATE_KEY to send transactions")
	}
	return client, b.auth, nil
}

// bound creates a bound contract at a configured collaborator address.
func (b *Backend) bound(client *ethclient.Client, parsed abi.ABI, address, what string) (*bind.BoundContract, error) {
	if address == "" {
		return nil, fmt.Errorf("%s contract not configured for network %s: set its address in upgr.toml", what, b.network.Name)
	}
	return bind.NewBoundContract(common.HexToAddress(address), parsed, client, client, client), nil
}

// transact sends one transaction serially and waits for it to be mined.
func (b *Backend) transact(ctx context.Context, client *ethclient.Client, contract *bind.BoundContract, method string, args ...any) (*types.Receipt, error) {
	b.mu.Lock()
	tx, err := contract.Transact(b.auth, method, args...)
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s: transaction %s reverted", method, tx.Hash())
	}
	return receipt, nil
}

// FetchOrDeploy verifies the root package artifact exists on chain for the
// given version. Deploying the collaborator suite happens out of band; this
// checks the configured package address holds code.
func (b *Backend) FetchOrDeploy(ctx context.Context, version string) (string, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	if b.network.PackageAddress == "" {
		return "", fmt.Errorf("package contract not configured for network %s", b.network.Name)
	}
	code, err := client.CodeAt(ctx, common.HexToAddress(b.network.PackageAddress), nil)
	if err != nil {
		return "", err
	}
	if len(code) == 0 {
		return "", fmt.Errorf("package contract %s has no code on network %s", b.network.PackageAddress, b.network.Name)
	}
	return b.network.PackageAddress, nil
}

// SetImplementation deploys the artifact's bytecode and registers it in the
// implementation directory under the alias.
func (b *Backend) SetImplementation(ctx context.Context, artifact *models.Artifact, alias string) (string, error) {
	client, auth, err := b.transactor(ctx)
	if err != nil {
		return "", err
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI of %s: %w", alias, err)
	}

	b.mu.Lock()
	address, tx, _, err := bind.DeployContract(auth, parsed, common.FromHex(artifact.Bytecode), client)
	b.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("deploy %s: %w", alias, err)
	}
	if _, err := bind.WaitDeployed(ctx, client, tx); err != nil {
		return "", fmt.Errorf("deploy %s: %w", alias, err)
	}

	directory, err := b.bound(client, b.directory, b.network.AppAddress, "implementation directory")
	if err != nil {
		return "", err
	}
	if _, err := b.transact(ctx, client, directory, "setImplementation", alias, address); err != nil {
		return "", err
	}
	b.log.Debug("deployed implementation", "alias", alias, "address", address.Hex())
	return address.Hex(), nil
}

// UnsetImplementation removes the alias registration from the directory.
func (b *Backend) UnsetImplementation(ctx context.Context, alias string) error {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return err
	}
	directory, err := b.bound(client, b.directory, b.network.AppAddress, "implementation directory")
	if err != nil {
		return err
	}
	_, err = b.transact(ctx, client, directory, "unsetImplementation", alias)
	return err
}

// GetImplementation returns the directory's registered address for a name.
func (b *Backend) GetImplementation(ctx context.Context, alias string) (string, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	directory, err := b.bound(client, b.directory, b.network.AppAddress, "implementation directory")
	if err != nil {
		return "", err
	}
	var out []any
	if err := directory.Call(&bind.CallOpts{Context: ctx}, &out, "getImplementation", alias); err != nil {
		return "", err
	}
	return out[0].(common.Address).Hex(), nil
}

func (b *Backend) CreateProxy(ctx context.Context, alias string, opts usecase.UpgradeOpts) (*models.ProxyInstance, error) {
	return b.createProxy(ctx, alias, opts, "deployProxy", nil)
}

func (b *Backend) CreateProxyWithSalt(ctx context.Context, alias string, salt string, opts usecase.UpgradeOpts) (*models.ProxyInstance, error) {
	hash := saltHash(salt)
	return b.createProxy(ctx, alias, opts, "deploySalted", &hash)
}

func (b *Backend) CreateMinimalProxy(ctx context.Context, alias string, opts usecase.UpgradeOpts) (*models.ProxyInstance, error) {
	return b.createProxy(ctx, alias, opts, "deployMinimal", nil)
}

func (b *Backend) createProxy(ctx context.Context, alias string, opts usecase.UpgradeOpts, method string, salt *common.Hash) (*models.ProxyInstance, error) {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return nil, err
	}
	impl, err := b.GetImplementation(ctx, alias)
	if err != nil {
		return nil, err
	}
	factory, err := b.bound(client, b.factory, b.network.FactoryAddress, "proxy factory")
	if err != nil {
		return nil, err
	}

	data := common.FromHex(opts.InitArgs)
	adminAddr := common.HexToAddress(b.network.AdminAddress)
	var args []any
	switch method {
	case "deployProxy":
		args = []any{adminAddr, common.HexToAddress(impl), data}
	case "deploySalted":
		args = []any{*salt, adminAddr, common.HexToAddress(impl), data}
	case "deployMinimal":
		args = []any{common.HexToAddress(impl), data}
	}
	receipt, err := b.transact(ctx, client, factory, method, args...)
	if err != nil {
		return nil, err
	}

	proxyAddr, err := b.proxyFromReceipt(receipt)
	if err != nil {
		return nil, err
	}
	instance := &models.ProxyInstance{Address: proxyAddr, Implementation: impl}
	if method != "deployMinimal" {
		instance.Admin = b.network.AdminAddress
	}
	return instance, nil
}

// proxyFromReceipt extracts the created proxy address from the factory's
// ProxyCreated event.
func (b *Backend) proxyFromReceipt(receipt *types.Receipt) (string, error) {
	event := b.factory.Events["ProxyCreated"]
	for _, logEntry := range receipt.Logs {
		if len(logEntry.Topics) > 0 && logEntry.Topics[0] == event.ID {
			values, err := event.Inputs.Unpack(logEntry.Data)
			if err != nil {
				return "", fmt.Errorf("failed to decode ProxyCreated event: %w", err)
			}
			return values[0].(common.Address).Hex(), nil
		}
	}
	return "", fmt.Errorf("transaction %s emitted no ProxyCreated event", receipt.TxHash)
}

// ProxyCreationAddress predicts the address a salted creation would use.
func (b *Backend) ProxyCreationAddress(ctx context.Context, salt string) (string, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	sender, err := b.GetAdminAddress(ctx)
	if err != nil {
		return "", err
	}
	factory, err := b.bound(client, b.factory, b.network.FactoryAddress, "proxy factory")
	if err != nil {
		return "", err
	}
	var out []any
	if err := factory.Call(&bind.CallOpts{Context: ctx}, &out, "getDeploymentAddress", saltHash(salt), common.HexToAddress(sender)); err != nil {
		return "", err
	}
	return out[0].(common.Address).Hex(), nil
}

// HasCode reports whether an address already holds deployed code.
func (b *Backend) HasCode(ctx context.Context, address string) (bool, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return false, err
	}
	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

// UpgradeProxy points a proxy at the contract's current implementation,
// optionally calling an initializer in the same transaction.
func (b *Backend) UpgradeProxy(ctx context.Context, proxyAddress string, alias string, opts usecase.UpgradeOpts) (string, error) {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return "", err
	}
	impl, err := b.GetImplementation(ctx, alias)
	if err != nil {
		return "", err
	}
	admin, err := b.bound(client, b.admin, b.network.AdminAddress, "proxy admin")
	if err != nil {
		return "", err
	}

	if opts.InitArgs != "" {
		_, err = b.transact(ctx, client, admin, "upgradeAndCall", common.HexToAddress(proxyAddress), common.HexToAddress(impl), common.FromHex(opts.InitArgs))
	} else {
		_, err = b.transact(ctx, client, admin, "upgrade", common.HexToAddress(proxyAddress), common.HexToAddress(impl))
	}
	if err != nil {
		return "", err
	}
	return impl, nil
}

// GetProxyImplementation reads the EIP-1967 implementation slot.
func (b *Backend) GetProxyImplementation(ctx context.Context, proxyAddress string) (string, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	raw, err := client.StorageAt(ctx, common.HexToAddress(proxyAddress), implementationSlot, nil)
	if err != nil {
		return "", err
	}
	return common.BytesToAddress(raw).Hex(), nil
}

func (b *Backend) ChangeProxyAdmin(ctx context.Context, proxyAddress string, newAdmin string) error {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return err
	}
	admin, err := b.bound(client, b.admin, b.network.AdminAddress, "proxy admin")
	if err != nil {
		return err
	}
	_, err = b.transact(ctx, client, admin, "changeProxyAdmin", common.HexToAddress(proxyAddress), common.HexToAddress(newAdmin))
	return err
}

func (b *Backend) TransferAdminOwnership(ctx context.Context, newOwner string) error {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return err
	}
	admin, err := b.bound(client, b.admin, b.network.AdminAddress, "proxy admin")
	if err != nil {
		return err
	}
	_, err = b.transact(ctx, client, admin, "transferOwnership", common.HexToAddress(newOwner))
	return err
}

func (b *Backend) SetDependency(ctx context.Context, name, packageAddress, version string) error {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return err
	}
	app, err := b.bound(client, b.app, b.network.AppAddress, "app")
	if err != nil {
		return err
	}
	_, err = b.transact(ctx, client, app, "setPackage", name, common.HexToAddress(packageAddress), version)
	return err
}

// UnsetDependency unlinks a package by name. Unlinking a package that is not
// currently linked is a successful no-op.
func (b *Backend) UnsetDependency(ctx context.Context, name string) (bool, error) {
	client, _, err := b.transactor(ctx)
	if err != nil {
		return false, err
	}
	app, err := b.bound(client, b.app, b.network.AppAddress, "app")
	if err != nil {
		return false, err
	}
	var out []any
	if err := app.Call(&bind.CallOpts{Context: ctx}, &out, "getPackage", name); err != nil {
		return false, err
	}
	if out[0].(common.Address) == (common.Address{}) {
		return false, nil
	}
	if _, err := b.transact(ctx, client, app, "unsetPackage", name); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureProxyAdmin returns the configured proxy admin contract, verifying it
// holds code.
func (b *Backend) EnsureProxyAdmin(ctx context.Context) (string, error) {
	return b.ensureCollaborator(ctx, b.network.AdminAddress, "proxy admin")
}

// EnsureProxyFactory returns the configured proxy factory contract,
// verifying it holds code.
func (b *Backend) EnsureProxyFactory(ctx context.Context) (string, error) {
	return b.ensureCollaborator(ctx, b.network.FactoryAddress, "proxy factory")
}

func (b *Backend) ensureCollaborator(ctx context.Context, address, what string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("%s contract not configured for network %s: set its address in upgr.toml", what, b.network.Name)
	}
	occupied, err := b.HasCode(ctx, address)
	if err != nil {
		return "", err
	}
	if !occupied {
		return "", fmt.Errorf("%s contract %s has no code on network %s", what, address, b.network.Name)
	}
	return address, nil
}

// GetAdminAddress returns the sender identity driving admin operations.
func (b *Backend) GetAdminAddress(ctx context.Context) (string, error) {
	if _, err := b.connect(ctx); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.auth == nil {
		return "", fmt.Errorf("no signing key: set UPGR_PRIVATE_KEY")
	}
	return b.auth.From.Hex(), nil
}

func saltHash(salt string) common.Hash {
	return common.BytesToHash(crypto.Keccak256([]byte(salt)))
}

var _ usecase.DeploymentBackend = (*Backend)(nil)
var _ usecase.ValidationOracle = (*Oracle)(nil)
