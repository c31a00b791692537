package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// StatusRenderer renders the record summary as tables
type StatusRenderer struct {
	out io.Writer
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer) *StatusRenderer {
	return &StatusRenderer{out: out}
}

// Render prints the record summary for one network
func (r *StatusRenderer) Render(result *usecase.StatusResult) error {
	fmt.Fprintf(r.out, "%s %s\n", SectionTitle("network"), result.Network)
	if result.Version != "" {
		fmt.Fprintf(r.out, "%s %s", SectionTitle("version"), result.Version)
		if result.Frozen {
			fmt.Fprintf(r.out, " %s", secondaryStyle.Sprint("(frozen)"))
		}
		fmt.Fprintln(r.out)
	}
	if result.ProxyAdmin != "" {
		fmt.Fprintf(r.out, "%s %s\n", SectionTitle("proxy admin"), result.ProxyAdmin)
	}
	fmt.Fprintln(r.out)

	if len(result.Contracts) == 0 && len(result.SolidityLibs) == 0 &&
		len(result.Proxies) == 0 && len(result.Dependencies) == 0 {
		fmt.Fprintln(r.out, "Nothing deployed on this network yet")
		return nil
	}

	if len(result.Contracts) > 0 {
		r.renderContracts("contracts", result.Contracts)
	}
	if len(result.SolidityLibs) > 0 {
		r.renderContracts("libraries", result.SolidityLibs)
	}
	if len(result.Proxies) > 0 {
		r.renderProxies(result.Proxies)
	}
	if len(result.Dependencies) > 0 {
		r.renderDependencies(result.Dependencies)
	}
	return nil
}

func (r *StatusRenderer) renderContracts(title string, rows []usecase.StatusContract) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Alias", "Address", "State"})
	for _, row := range rows {
		state := okStyle.Sprint("deployed")
		if row.Changed {
			state = changedStyle.Sprint("changed locally")
		}
		t.AppendRow(table.Row{row.Alias, row.Address, state})
	}
	fmt.Fprintln(r.out, SectionTitle(title))
	t.Render()
	fmt.Fprintln(r.out)
}

func (r *StatusRenderer) renderProxies(rows []usecase.StatusProxy) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Address", "Version", "Kind", "Admin"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.FullName, row.Address, row.Version, string(row.Kind), row.Admin})
	}
	fmt.Fprintln(r.out, SectionTitle("proxies"))
	t.Render()
	fmt.Fprintln(r.out)
}

func (r *StatusRenderer) renderDependencies(rows []usecase.StatusDependency) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Package", "Version", "Requirement", "State"})
	for _, row := range rows {
		state := okStyle.Sprint("ok")
		switch {
		case row.CustomDeploy:
			state = secondaryStyle.Sprint("custom deploy")
		case !row.Satisfied:
			state = badStyle.Sprint("unsatisfied")
		}
		t.AppendRow(table.Row{row.Name, row.Version, row.Requirement, state})
	}
	fmt.Fprintln(r.out, SectionTitle("dependencies"))
	t.Render()
	fmt.Fprintln(r.out)
}
