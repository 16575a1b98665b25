package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewEnvelope_FixedGas(t *testing.T) {
	acct := Account{Address: common.HexToAddress("0x01"), Credential: "0xabc"}
	req := acct.Request(common.HexToAddress("0x02"), []byte{0xde, 0xad})

	env := NewEnvelope(req, 7, DefaultGasLimit)

	if env.GasPrice == nil || env.GasPrice.Sign() != 0 {
		t.Fatalf("expected zero gas price, got %v", env.GasPrice)
	}
	if env.GasLimit != 29900000 {
		t.Errorf("unexpected gas limit %d", env.GasLimit)
	}
	if env.Nonce != 7 || env.From != acct.Address || env.To != req.Target {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestStripHexPrefix(t *testing.T) {
	tests := map[string]string{
		"0xabc":  "abc",
		"0Xabc":  "abc",
		"abc":    "abc",
		" 0xab ": "ab",
	}
	for in, want := range tests {
		if got := StripHexPrefix(in); got != want {
			t.Errorf("StripHexPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReceipt_Confirmations(t *testing.T) {
	r := TransactionReceipt{BlockNumber: 10, Status: ReceiptStatusSuccessful}

	if r.ConfirmationsAt(9) != 0 {
		t.Error("head behind receipt should have zero confirmations")
	}
	if r.ConfirmationsAt(10) != 1 {
		t.Error("receipt block counts as the first confirmation")
	}
	if r.ConfirmationsAt(12) != 3 {
		t.Error("unexpected confirmation count")
	}
	if !r.Succeeded() {
		t.Error("expected success")
	}
}

func TestPrivateChain(t *testing.T) {
	c := PrivateChain()
	if c.ChainID.Int64() != 11421 || c.NetworkID != 1 || c.Hardfork != "petersburg" {
		t.Fatalf("unexpected chain identity %+v", c)
	}
}

func TestContentSubscriptions_IsCopy(t *testing.T) {
	spec := ContentSubscriptions()
	spec[0].OutputEvent = "Changed"

	again := ContentSubscriptions()
	if again[0].OutputEvent != EventDesign {
		t.Fatal("subscription set must not be mutable through a returned copy")
	}
	names := again.OutputNames()
	if len(names) != 3 || names[2] != EventTransferObject {
		t.Fatalf("unexpected names %v", names)
	}
}
