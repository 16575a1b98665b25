package ethereum

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
)

// Signer signs legacy EIP-155 transactions for a fixed chain.
type Signer struct {
	chain  domain.ChainIdentity
	signer types.Signer
}

var _ app.Signer = (*Signer)(nil)

func NewSigner(chain domain.ChainIdentity) *Signer {
	return &Signer{
		chain:  chain,
		signer: types.NewEIP155Signer(chain.ChainID),
	}
}

// Chain returns the identity transactions are signed for.
func (s *Signer) Chain() domain.ChainIdentity {
	return s.chain
}

// Sign signs env with the hex private key in credential. The key must
// belong to env.From when a sender is set.
func (s *Signer) Sign(env domain.Envelope, credential string) (domain.SignedEnvelope, error) {
	key, err := crypto.HexToECDSA(domain.StripHexPrefix(credential))
	if err != nil {
		return domain.SignedEnvelope{}, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("decode private key"), apperror.WithCause(err))
	}

	if owner := crypto.PubkeyToAddress(key.PublicKey); env.From != (common.Address{}) && owner != env.From {
		return domain.SignedEnvelope{}, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("credential belongs to "+owner.Hex()+", not "+env.From.Hex()))
	}

	gasPrice := env.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	to := env.To

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    env.Nonce,
		GasPrice: gasPrice,
		Gas:      env.GasLimit,
		To:       &to,
		Value:    new(big.Int),
		Data:     env.Data,
	})

	signed, err := types.SignTx(tx, s.signer, key)
	if err != nil {
		return domain.SignedEnvelope{}, apperror.New(apperror.CodeSigningFailed, apperror.WithCause(err))
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return domain.SignedEnvelope{}, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("encode transaction"), apperror.WithCause(err))
	}

	return domain.SignedEnvelope{Raw: raw, Hash: signed.Hash()}, nil
}
