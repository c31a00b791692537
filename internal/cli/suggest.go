package cli

import (
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"

	"github.com/upgradehq/upgr-cli/internal/domain/models"
)

// contractNotFound builds the error for an unknown contract alias, with a
// fuzzy "did you mean" suggestion against the manifest's aliases.
func contractNotFound(alias string, manifest *models.Manifest) error {
	aliases := lo.Keys(manifest.Contracts)
	sort.Strings(aliases)

	matches := fuzzy.Find(alias, aliases)
	if len(matches) > 0 {
		return fmt.Errorf("contract %s not found in upgr.toml (did you mean %s?)", alias, matches[0].Str)
	}
	return fmt.Errorf("contract %s not found in upgr.toml", alias)
}
