package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is a blockchain address bound to exactly one User.
type Wallet struct {
	Address    string    `json:"address"`
	UserID     string    `json:"userId"`
	IsPrimary  bool      `json:"isPrimary"`
	ENSName    string    `json:"ensName,omitempty"`
	ENSAvatar  string    `json:"ensAvatar,omitempty"`
	BaseName   string    `json:"baseName,omitempty"`
	BaseAvatar string    `json:"baseAvatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ResolvedName is a reverse-resolution result from a naming registry.
type ResolvedName struct {
	Name   string
	Avatar string
}

// NormalizeAddress returns the EIP-55 checksum form of a hex address, or
// ErrInvalidArgument when s is not a 20-byte hex address.
func NormalizeAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", ErrInvalidArgument
	}
	return common.HexToAddress(s).Hex(), nil
}
