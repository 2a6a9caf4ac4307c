// Package vault provides the vault type constants.
package vault

// Type represents the type of vault.
type Type string

const (
	// TypeDotEnv reads secrets from the environment and dotenv files.
	TypeDotEnv Type = "dotenv"
	// TypeNone disables the vault layer.
	TypeNone Type = "none"
)
