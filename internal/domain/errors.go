package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a referenced record entry doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidManifest is returned when manifest data is invalid
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrSaltedMinimalProxy is returned when salted creation is requested for a minimal proxy
	ErrSaltedMinimalProxy = errors.New("cannot create a minimal proxy with a salt: minimal proxies are not upgradeable and do not support deterministic addresses")
)

// NotFoundErr reports a record entry that a caller referenced but that is
// absent from the deployment record. This is a programming-contract
// violation, never an expected runtime case.
type NotFoundErr struct {
	Kind     string // "contract", "proxy", "library", "dependency"
	Identity string // alias, fullName:address, or name
}

func (e NotFoundErr) Error() string {
	return fmt.Sprintf("%s %s not found in deployment record", e.Kind, e.Identity)
}

func (e NotFoundErr) Unwrap() error { return ErrNotFound }

// NamingCollisionErr reports solidity libraries whose names collide with
// contract aliases in the same manifest.
type NamingCollisionErr struct {
	Names []string
}

func (e NamingCollisionErr) Error() string {
	sorted := make([]string, len(e.Names))
	copy(sorted, e.Names)
	sort.Strings(sorted)
	return fmt.Sprintf("cannot deploy: %s clash with existing contract aliases - rename the libraries or the contracts", strings.Join(sorted, ", "))
}

// ValidationFailureErr reports blocking validation warnings on one or more
// contracts in a push delta. The push aborts before any deployment.
type ValidationFailureErr struct {
	Contracts []string
}

func (e ValidationFailureErr) Error() string {
	sorted := make([]string, len(e.Contracts))
	copy(sorted, e.Contracts)
	sort.Strings(sorted)
	return fmt.Sprintf("one or more contracts have validation errors: %s - fix the issues or force the push to deploy anyway", strings.Join(sorted, ", "))
}

// UnpublishedDependencyErr reports a manifest dependency that has no on-chain
// package deployed for the target network.
type UnpublishedDependencyErr struct {
	Dependency string
	Network    string
}

func (e UnpublishedDependencyErr) Error() string {
	return fmt.Sprintf("dependency %s has not been published to network %s - deploy your dependencies explicitly before pushing", e.Dependency, e.Network)
}

// VersionMismatchErr reports a dependency whose deployed version does not
// satisfy the manifest's requirement.
type VersionMismatchErr struct {
	Dependency  string
	Version     string
	Requirement string
}

func (e VersionMismatchErr) Error() string {
	return fmt.Sprintf("dependency %s version %s does not satisfy requirement %s", e.Dependency, e.Version, e.Requirement)
}

// FrozenProjectErr reports an attempted contract mutation while the
// deployment record is frozen.
type FrozenProjectErr struct {
	Alias string
}

func (e FrozenProjectErr) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("cannot modify contract %s: project is frozen for this version - bump the package version to deploy again", e.Alias)
	}
	return "project is frozen for this version - bump the package version to deploy again"
}

// BackendOperationErr wraps an underlying deployment backend failure, tagged
// with the entity it occurred on.
type BackendOperationErr struct {
	Entity string
	Op     string
	Err    error
}

func (e BackendOperationErr) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e BackendOperationErr) Unwrap() error { return e.Err }

// BatchErr aggregates the individual failures of one concurrent batch. A
// batch raises it only after every sibling operation has settled.
type BatchErr struct {
	Op       string
	Failures []error
}

func (e *BatchErr) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = "  - " + err.Error()
	}
	sort.Strings(msgs)
	return fmt.Sprintf("%s: %d batched operations failed:\n%s", e.Op, len(e.Failures), strings.Join(msgs, "\n"))
}

func (e *BatchErr) Unwrap() []error { return e.Failures }
