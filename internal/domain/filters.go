package domain

import "strings"

// ProxyFilter selects proxy instances from a deployment record. Fields are
// AND-combined; a zero field matches everything. Contract matches the alias
// segment of the bucket key, the same identity the manifest declares.
type ProxyFilter struct {
	Package  string
	Contract string
	Address  string
	Kind     string
}

// MatchesFullName reports whether a proxy bucket key ("package/contract")
// passes the package and contract fields of the filter.
func (f ProxyFilter) MatchesFullName(fullName string) bool {
	pkg, contract, ok := strings.Cut(fullName, "/")
	if !ok {
		// Legacy buckets keyed by bare contract name.
		pkg, contract = "", fullName
	}
	if f.Package != "" && f.Package != pkg {
		return false
	}
	if f.Contract != "" && f.Contract != contract {
		return false
	}
	return true
}
