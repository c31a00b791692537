package render

import (
	"fmt"
	"io"

	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// ProxyRenderer renders proxy lifecycle results
type ProxyRenderer struct {
	out io.Writer
}

// NewProxyRenderer creates a new proxy renderer
func NewProxyRenderer(out io.Writer) *ProxyRenderer {
	return &ProxyRenderer{out: out}
}

// RenderCreated prints a freshly created proxy
func (r *ProxyRenderer) RenderCreated(result *usecase.CreateProxyResult) error {
	fmt.Fprintf(r.out, "%s proxy for %s at %s\n",
		result.Proxy.Kind, result.FullName, addressStyle.Sprint(result.Proxy.Address))
	fmt.Fprintf(r.out, "  implementation: %s\n", secondaryStyle.Sprint(result.Proxy.Implementation))
	if result.Proxy.Admin != "" {
		fmt.Fprintf(r.out, "  admin:          %s\n", secondaryStyle.Sprint(result.Proxy.Admin))
	}
	return nil
}

// RenderUpgraded prints the outcome of an upgrade batch
func (r *ProxyRenderer) RenderUpgraded(result *usecase.UpgradeProxiesResult) error {
	for _, proxy := range result.Upgraded {
		fmt.Fprintf(r.out, "  %s %s -> %s\n", okStyle.Sprint("✔"),
			addressStyle.Sprint(proxy.Address), secondaryStyle.Sprint(proxy.Implementation))
	}
	for _, proxy := range result.Refreshed {
		fmt.Fprintf(r.out, "  %s %s already on %s\n", secondaryStyle.Sprint("="),
			addressStyle.Sprint(proxy.Address), secondaryStyle.Sprint(proxy.Implementation))
	}
	for _, proxy := range result.Skipped {
		fmt.Fprintf(r.out, "  %s %s owned by %s, skipped\n", changedStyle.Sprint("⚠"),
			addressStyle.Sprint(proxy.Address), proxy.Admin)
	}
	switch {
	case len(result.Upgraded) > 0:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Upgraded %d proxies", len(result.Upgraded))))
	case len(result.Refreshed) > 0:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%d proxies already on the current implementation", len(result.Refreshed))))
	default:
		fmt.Fprintln(r.out, "No owned proxies to upgrade")
	}
	return nil
}

// RenderAdminChanged prints the outcome of an admin transfer batch
func (r *ProxyRenderer) RenderAdminChanged(result *usecase.SetProxiesAdminResult, newAdmin string) error {
	for _, proxy := range result.Changed {
		fmt.Fprintf(r.out, "  %s %s\n", okStyle.Sprint("✔"), addressStyle.Sprint(proxy.Address))
	}
	for _, proxy := range result.Skipped {
		fmt.Fprintf(r.out, "  %s %s owned by %s, skipped\n", changedStyle.Sprint("⚠"),
			addressStyle.Sprint(proxy.Address), proxy.Admin)
	}
	if len(result.Changed) == 0 {
		fmt.Fprintln(r.out, "No owned proxies to transfer")
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Transferred %d proxies to %s", len(result.Changed), newAdmin)))
	fmt.Fprintln(r.out, FormatWarning("Proxies administered outside upgr can no longer be upgraded from this tool"))
	return nil
}

// RenderOwnershipTransferred prints the admin contract ownership move
func (r *ProxyRenderer) RenderOwnershipTransferred(newOwner string) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Proxy admin ownership transferred to %s", newOwner)))
	return nil
}
