package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// linkPlaceholder matches the unresolved library placeholders the compiler
// leaves in unlinked bytecode, both the legacy __LibName____ form and the
// __$hash$__ form.
var linkPlaceholder = regexp.MustCompile(`__(\$[0-9a-fA-F]{34}\$|[\w:]{1,36})__`)

// Oracle hashes artifact bytecode and validates upgrade safety against the
// prior deployment record.
type Oracle struct{}

// NewOracle creates a bytecode/validation oracle
func NewOracle() *Oracle {
	return &Oracle{}
}

// BytecodeHash digests the creation bytecode with link placeholders
// normalized out, so the hash is stable across different library addresses.
func (o *Oracle) BytecodeHash(artifact *models.Artifact) string {
	code := strings.TrimPrefix(artifact.Bytecode, "0x")
	code = linkPlaceholder.ReplaceAllStringFunc(code, func(m string) string {
		return strings.Repeat("0", len(m))
	})
	return crypto.Keccak256Hash([]byte(code)).Hex()
}

// storageEntry is one variable in the compiler's storage layout output.
type storageEntry struct {
	Label  string `json:"label"`
	Slot   string `json:"slot"`
	Offset int    `json:"offset"`
	Type   string `json:"type"`
}

type storageLayout struct {
	Storage []storageEntry `json:"storage"`
}

// Validate checks an artifact for upgrade hazards. A contract with
// constructor arguments cannot be initialized through a proxy, and a storage
// layout that moves existing variables corrupts proxy state on upgrade; both
// block deployment unless forced.
func (o *Oracle) Validate(ctx context.Context, artifact *models.Artifact, prior *models.ContractRecord) []models.Warning {
	var warnings []models.Warning

	if w := o.checkConstructor(artifact); w != nil {
		warnings = append(warnings, *w)
	}
	if prior != nil {
		warnings = append(warnings, o.checkStorageLayout(artifact, prior)...)
	}
	return warnings
}

func (o *Oracle) checkConstructor(artifact *models.Artifact) *models.Warning {
	if len(artifact.ABI) == 0 {
		return nil
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return &models.Warning{
			Code:    "abi-unreadable",
			Message: fmt.Sprintf("could not parse ABI of %s: %v", artifact.ContractName, err),
		}
	}
	if len(parsed.Constructor.Inputs) > 0 {
		return &models.Warning{
			Code:     "constructor-args",
			Message:  fmt.Sprintf("%s has a constructor with arguments: use an initializer function instead, constructors do not run behind a proxy", artifact.ContractName),
			Blocking: true,
		}
	}
	return nil
}

// checkStorageLayout compares the artifact's layout against the recorded
// one. Existing variables must keep their slot, offset and type; new
// variables may only be appended.
func (o *Oracle) checkStorageLayout(artifact *models.Artifact, prior *models.ContractRecord) []models.Warning {
	if len(prior.StorageLayout) == 0 || len(artifact.StorageLayout) == 0 {
		return []models.Warning{{
			Code:    "layout-unknown",
			Message: fmt.Sprintf("cannot verify storage compatibility of %s: storage layout missing from the artifact or the prior deployment", artifact.ContractName),
		}}
	}

	var before, after storageLayout
	if err := json.Unmarshal(prior.StorageLayout, &before); err != nil {
		return []models.Warning{{Code: "layout-unreadable", Message: fmt.Sprintf("could not parse recorded storage layout of %s: %v", artifact.ContractName, err)}}
	}
	if err := json.Unmarshal(artifact.StorageLayout, &after); err != nil {
		return []models.Warning{{Code: "layout-unreadable", Message: fmt.Sprintf("could not parse storage layout of %s: %v", artifact.ContractName, err)}}
	}

	var warnings []models.Warning
	if len(after.Storage) < len(before.Storage) {
		warnings = append(warnings, models.Warning{
			Code:     "layout-shrunk",
			Message:  fmt.Sprintf("%s removes storage variables present in the deployed version", artifact.ContractName),
			Blocking: true,
		})
	}
	limit := min(len(before.Storage), len(after.Storage))
	for i := 0; i < limit; i++ {
		b, a := before.Storage[i], after.Storage[i]
		if b.Slot != a.Slot || b.Offset != a.Offset || b.Type != a.Type {
			warnings = append(warnings, models.Warning{
				Code:     "layout-moved",
				Message:  fmt.Sprintf("%s moves storage variable %s (slot %s -> %s): existing proxy state would be corrupted", artifact.ContractName, b.Label, b.Slot, a.Slot),
				Blocking: true,
			})
		} else if b.Label != a.Label {
			warnings = append(warnings, models.Warning{
				Code:    "layout-renamed",
				Message: fmt.Sprintf("%s renames storage variable %s to %s", artifact.ContractName, b.Label, a.Label),
			})
		}
	}
	return warnings
}
