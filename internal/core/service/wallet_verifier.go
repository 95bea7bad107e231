package service

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// WalletVerifier checks EIP-191 personal_sign signatures.
type WalletVerifier struct{}

func NewWalletVerifier() *WalletVerifier {
	return &WalletVerifier{}
}

// Verify recovers the signer of message and compares it with address. It
// returns the checksum-normalized address on success.
//
// The message is not checked for freshness; see DESIGN.md on replay.
func (v *WalletVerifier) Verify(address, message, signature string) (string, error) {
	if !common.IsHexAddress(address) || message == "" || signature == "" {
		return "", domain.ErrInvalidArgument
	}
	claimed := common.HexToAddress(address)

	sig, err := hexutil.Decode(ensureHexPrefix(signature))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", domain.ErrInvalidSignature
	}
	// Wallets emit v as 27/28; recovery expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", domain.ErrInvalidSignature
	}
	if crypto.PubkeyToAddress(*pub) != claimed {
		return "", domain.ErrInvalidSignature
	}
	return claimed.Hex(), nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
