// Package version exposes the contract version reported by GetVersion.
package version

// Contract and schema versions. ContractVersion identifies the deployed
// behavior; SchemaVersion identifies the serialized account layouts.
const (
	ContractVersion = "0.1.0"
	SchemaVersion   = 1
)
