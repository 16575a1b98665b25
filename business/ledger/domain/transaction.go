package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultGasLimit is the gas ceiling attached to every transaction.
const DefaultGasLimit uint64 = 29900000

// DefaultConfirmBlockTimeout is how many blocks may pass after broadcast
// before a missing receipt is reported as a timeout.
const DefaultConfirmBlockTimeout uint64 = 20000

// ReceiptStatusSuccessful marks a receipt whose execution did not revert.
const ReceiptStatusSuccessful uint64 = 1

// ChainIdentity is the fixed chain configuration used for signing.
type ChainIdentity struct {
	Name      string
	ChainID   *big.Int
	NetworkID uint64
	Hardfork  string
}

// PrivateChain returns the ContentNFT private chain identity.
func PrivateChain() ChainIdentity {
	return ChainIdentity{
		Name:      "privatechain",
		ChainID:   big.NewInt(11421),
		NetworkID: 1,
		Hardfork:  "petersburg",
	}
}

// TransactionRequest is a single state-change call to submit.
type TransactionRequest struct {
	Sender     common.Address
	Credential string // hex private key, with or without 0x
	Target     common.Address
	Payload    []byte
}

// Account is the signing identity a caller supplies per operation.
type Account struct {
	Address    common.Address
	Credential string
}

// Request builds a request from this account.
func (a Account) Request(target common.Address, payload []byte) TransactionRequest {
	return TransactionRequest{
		Sender:     a.Address,
		Credential: a.Credential,
		Target:     target,
		Payload:    payload,
	}
}

// StripHexPrefix removes a leading 0x from a hex credential.
func StripHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// Envelope is the unsigned transaction handed to the signer.
type Envelope struct {
	From     common.Address
	To       common.Address
	GasLimit uint64
	GasPrice *big.Int
	Data     []byte
	Nonce    uint64
}

// NewEnvelope builds the envelope for req. Gas price is always zero on
// the private chain.
func NewEnvelope(req TransactionRequest, nonce, gasLimit uint64) Envelope {
	return Envelope{
		From:     req.Sender,
		To:       req.Target,
		GasLimit: gasLimit,
		GasPrice: new(big.Int),
		Data:     req.Payload,
		Nonce:    nonce,
	}
}

// SignedEnvelope is a serialized signed transaction.
type SignedEnvelope struct {
	Raw  []byte
	Hash common.Hash
}

// TransactionReceipt is the confirmation record of a mined transaction.
type TransactionReceipt struct {
	TxHash        common.Hash
	BlockNumber   uint64
	BlockHash     common.Hash
	Status        uint64
	GasUsed       uint64
	Confirmations uint64
}

// Succeeded reports whether execution did not revert.
func (r TransactionReceipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// ConfirmationsAt returns how many blocks confirm the receipt at head.
func (r TransactionReceipt) ConfirmationsAt(head uint64) uint64 {
	if head < r.BlockNumber {
		return 0
	}
	return head - r.BlockNumber + 1
}
