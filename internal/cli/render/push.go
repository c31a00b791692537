package render

import (
	"fmt"
	"io"

	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// PushRenderer renders the outcome of a reconciliation pass
type PushRenderer struct {
	out io.Writer
}

// NewPushRenderer creates a new push renderer
func NewPushRenderer(out io.Writer) *PushRenderer {
	return &PushRenderer{out: out}
}

// Render prints what the pass deployed and removed
func (r *PushRenderer) Render(result *usecase.PushResult) error {
	changed := len(result.DeployedContracts) + len(result.RemovedContracts) +
		len(result.DeployedLibs) + len(result.RemovedLibs)

	if result.NewVersion {
		fmt.Fprintf(r.out, "Pushed new version %s\n", result.Record.Version)
	}
	if changed == 0 {
		fmt.Fprintln(r.out, "Nothing to deploy, record is up to date")
		return nil
	}

	for _, name := range result.DeployedLibs {
		lib, _ := result.Record.GetSolidityLib(name)
		fmt.Fprintf(r.out, "  %s library %s at %s\n", okStyle.Sprint("✔"), name, addressStyle.Sprint(lib.Address))
	}
	for _, alias := range result.DeployedContracts {
		contract, _ := result.Record.GetContract(alias)
		fmt.Fprintf(r.out, "  %s %s at %s\n", okStyle.Sprint("✔"), alias, addressStyle.Sprint(contract.Address))
	}
	for _, alias := range result.RemovedContracts {
		fmt.Fprintf(r.out, "  %s removed %s\n", badStyle.Sprint("✘"), alias)
	}
	for _, name := range result.RemovedLibs {
		fmt.Fprintf(r.out, "  %s removed library %s\n", badStyle.Sprint("✘"), name)
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Pushed %d changes to %s", changed, result.Record.Network)))
	return nil
}
