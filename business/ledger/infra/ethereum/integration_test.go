package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/contentnft-gateway/business/ledger/app"
	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/internal/apperror"
	"github.com/fd1az/contentnft-gateway/internal/logger"
	"github.com/fd1az/contentnft-gateway/internal/nodetest"
	"github.com/fd1az/contentnft-gateway/internal/ratelimit"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

type testAccount struct {
	key     *ecdsa.PrivateKey
	account domain.Account
}

func newTestAccount(t *testing.T) testAccount {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testAccount{
		key: key,
		account: domain.Account{
			Address:    crypto.PubkeyToAddress(key.PublicKey),
			Credential: hexutil.Encode(crypto.FromECDSA(key)),
		},
	}
}

type fixedSource struct {
	t app.Transport
}

func (s fixedSource) Active() (app.Transport, bool) { return s.t, s.t != nil }

func dial(t *testing.T, url string) (*Transport, *Contract) {
	t.Helper()
	contract := newTestContract(t)
	factory := NewFactory(contract, 0, &mockLogger{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := factory.Dial(ctx, domain.Endpoint(url))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr.(*Transport), contract
}

func fastSubmitterConfig() app.SubmitterConfig {
	cfg := app.DefaultSubmitterConfig()
	cfg.ReceiptPollInterval = 5 * time.Millisecond
	return cfg
}

func TestTransport_ProbeLiveness(t *testing.T) {
	node := nodetest.New(t)
	tr, _ := dial(t, node.URL())
	ctx := context.Background()

	require.NoError(t, tr.ProbeLiveness(ctx))

	node.SetListening(false)
	err := tr.ProbeLiveness(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeLivenessProbeFailed), "got %v", err)
}

func TestTransport_ProbeTimesOutOnSilentNode(t *testing.T) {
	silent := nodetest.NewSilent(t)
	tr, _ := dial(t, silent.URL())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tr.ProbeLiveness(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeLivenessProbeFailed), "got %v", err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Eventually(t, func() bool { return silent.Received() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestTransport_ClosedIsUnavailable(t *testing.T) {
	node := nodetest.New(t)
	tr, _ := dial(t, node.URL())
	ctx := context.Background()

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	err := tr.ProbeLiveness(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeTransportUnavailable), "got %v", err)

	_, err = tr.PendingNonce(ctx, common.HexToAddress("0xa1"))
	require.True(t, apperror.HasCode(err, apperror.CodeTransportUnavailable), "got %v", err)

	_, err = tr.Subscribe(ctx, domain.ContentSubscriptions()[0])
	require.True(t, apperror.HasCode(err, apperror.CodeTransportUnavailable), "got %v", err)
}

func TestFactory_DialFailure(t *testing.T) {
	node := nodetest.New(t)
	url := node.URL()
	node.Close()

	factory := NewFactory(newTestContract(t), 0, &mockLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := factory.Dial(ctx, domain.Endpoint(url))
	require.True(t, apperror.HasCode(err, apperror.CodeTransportDialFailed), "got %v", err)
}

func TestSubmitter_AgainstNode(t *testing.T) {
	node := nodetest.New(t)
	tr, contract := dial(t, node.URL())
	acct := newTestAccount(t)
	node.SetNonce(acct.account.Address, 41)

	submitter, err := app.NewSubmitter(fixedSource{tr}, NewSigner(domain.PrivateChain()), fastSubmitterConfig(), &mockLogger{})
	require.NoError(t, err)

	payload, err := contract.EncodeTransfer(domain.TransferParams{To: common.HexToAddress("0xb2"), ObjectID: big.NewInt(3)})
	require.NoError(t, err)
	req := acct.account.Request(contract.Address(), payload)

	ctx := context.Background()
	first, err := submitter.SubmitAndWait(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Succeeded())
	require.GreaterOrEqual(t, first.Confirmations, uint64(1))

	second, err := submitter.Submit(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, first.TxHash, second)

	txs := node.Transactions()
	require.Len(t, txs, 2)
	for i, tx := range txs {
		require.Equal(t, uint64(41+i), tx.Nonce())
		require.Equal(t, int64(11421), tx.ChainId().Int64())
		require.Zero(t, tx.GasPrice().Sign())
		require.Equal(t, domain.DefaultGasLimit, tx.Gas())
		require.Equal(t, contract.Address(), *tx.To())
		require.Equal(t, payload, tx.Data())

		from, err := node.Sender(tx)
		require.NoError(t, err)
		require.Equal(t, acct.account.Address, from)
	}
	require.Equal(t, first.TxHash, txs[0].Hash())
	require.Equal(t, second, txs[1].Hash())
}

func TestSubmitter_FailuresAgainstNode(t *testing.T) {
	tests := []struct {
		name     string
		opts     []nodetest.Option
		setup    func(n *nodetest.Node)
		badKey   bool
		wantCode apperror.Code
		check    func(t *testing.T, n *nodetest.Node)
	}{
		{
			name:     "rejected_broadcast",
			setup:    func(n *nodetest.Node) { n.RejectTransactions(errors.New("insufficient funds")) },
			wantCode: apperror.CodeBroadcastRejected,
			check: func(t *testing.T, n *nodetest.Node) {
				require.Zero(t, n.ReceiptRequests())
			},
		},
		{
			name:     "reverted",
			setup:    func(n *nodetest.Node) { n.SetRevert(true) },
			wantCode: apperror.CodeBroadcastRejected,
		},
		{
			name:     "other_chain",
			opts:     []nodetest.Option{nodetest.WithChainID(big.NewInt(1))},
			wantCode: apperror.CodeBroadcastRejected,
			check: func(t *testing.T, n *nodetest.Node) {
				require.Empty(t, n.Transactions())
			},
		},
		{
			name: "never_mined",
			setup: func(n *nodetest.Node) {
				n.WithholdReceipts(true)
				n.SetBlockStep(10001)
			},
			wantCode: apperror.CodeConfirmationTimeout,
		},
		{
			name:     "bad_credential",
			badKey:   true,
			wantCode: apperror.CodeSigningFailed,
			check: func(t *testing.T, n *nodetest.Node) {
				require.Empty(t, n.Transactions())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := nodetest.New(t, tt.opts...)
			if tt.setup != nil {
				tt.setup(node)
			}
			tr, contract := dial(t, node.URL())

			submitter, err := app.NewSubmitter(fixedSource{tr}, NewSigner(domain.PrivateChain()), fastSubmitterConfig(), &mockLogger{})
			require.NoError(t, err)

			acct := newTestAccount(t)
			if tt.badKey {
				acct.account.Credential = "0xnot-a-key"
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err = submitter.Submit(ctx, acct.account.Request(contract.Address(), []byte{0x01}))
			require.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
			if tt.check != nil {
				tt.check(t, node)
			}
		})
	}
}

func TestTransport_SubscriptionDeliversDecodedEvents(t *testing.T) {
	node := nodetest.New(t)
	tr, contract := dial(t, node.URL())
	owner := common.HexToAddress("0xa1")

	sub, err := tr.Subscribe(context.Background(), domain.SubscriptionEntry{RemoteEvent: "DesignLog", OutputEvent: domain.EventDesign})
	require.NoError(t, err)
	require.Equal(t, 1, node.LogSubscriptions())

	// Filtered out by topic.
	node.Emit(mintLog(t, contract, owner, 1, 1))
	node.Emit(designLog(t, contract, owner, 7))

	select {
	case ev := <-sub.Events():
		require.Equal(t, "DesignLog", ev.RemoteName)
		require.Equal(t, "song", ev.Fields["name"])
		require.Equal(t, owner, ev.Fields["owner"])
		require.Equal(t, int64(7), ev.Fields["specId"].(*big.Int).Int64())
		require.Equal(t, contract.Address(), ev.Contract)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event %s", ev.RemoteName)
	case <-time.After(100 * time.Millisecond):
	}

	sub.Unsubscribe()
	_, open := <-sub.Err()
	require.False(t, open)
	require.Eventually(t, func() bool { return node.LogSubscriptions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func newNodeController(t *testing.T, primary, secondary string) (*app.Controller, *Contract) {
	t.Helper()
	log := &mockLogger{}
	contract := newTestContract(t)

	pair, err := domain.NewEndpointPair(primary, secondary)
	require.NoError(t, err)

	emitter := app.NewEmitter()
	registrar, err := app.NewRegistrar(domain.ContentSubscriptions(), emitter, log)
	require.NoError(t, err)

	cfg := app.ControllerConfig{
		Endpoints:      pair,
		HealthInterval: 100 * time.Millisecond,
		ProbeTimeout:   50 * time.Millisecond,
		DialTimeout:    200 * time.Millisecond,
	}
	ctrl, err := app.NewController(cfg, NewFactory(contract, 0, log), registrar, emitter, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	return ctrl, contract
}

func onSecondary(ctrl *app.Controller) func() bool {
	return func() bool {
		st := ctrl.Status()
		return st.State == domain.StateConnected && st.ActiveRole == domain.RoleSecondary
	}
}

func TestController_FailsOverBetweenNodes(t *testing.T) {
	primary := nodetest.New(t)
	secondary := nodetest.New(t)
	ctrl, contract := newNodeController(t, primary.URL(), secondary.URL())

	events, cancel := ctrl.Emitter().Listen(8, domain.EventDesign)
	defer cancel()

	require.NoError(t, ctrl.Connect(context.Background()))
	require.Equal(t, domain.RolePrimary, ctrl.Status().ActiveRole)
	require.Equal(t, 3, primary.LogSubscriptions())

	primary.Close()

	require.Eventually(t, onSecondary(ctrl), 5*time.Second, 10*time.Millisecond)
	require.Equal(t, 3, secondary.LogSubscriptions())
	require.GreaterOrEqual(t, ctrl.Status().Failovers, uint64(1))

	secondary.Emit(designLog(t, contract, common.HexToAddress("0xa1"), 9))

	select {
	case ev := <-events:
		require.Equal(t, domain.EventDesign, ev.Name)
		require.Equal(t, "SNG", ev.Fields["symbol"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after failover")
	}

	select {
	case ev := <-events:
		t.Fatalf("event delivered twice: %v", ev.Name)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestController_AbandonsHungPrimary(t *testing.T) {
	primary := nodetest.NewSilent(t)
	secondary := nodetest.New(t)
	ctrl, _ := newNodeController(t, primary.URL(), secondary.URL())

	require.NoError(t, ctrl.Connect(context.Background()))

	require.Eventually(t, onSecondary(ctrl), 5*time.Second, 10*time.Millisecond)
	require.Equal(t, 3, secondary.LogSubscriptions())
}

func TestLedgerService_AgainstNode(t *testing.T) {
	node := nodetest.New(t)
	ctrl, contract := newNodeController(t, node.URL(), "")
	owner := common.HexToAddress("0xa1")
	contractABI := contract.ABI()

	node.HandleCalls(func(to common.Address, data []byte) ([]byte, error) {
		if to != contract.Address() || len(data) < 4 {
			return nil, errors.New("execution reverted")
		}
		m, err := contractABI.MethodById(data[:4])
		if err != nil {
			return nil, err
		}
		switch m.Name {
		case "totalSupplyOf":
			return m.Outputs.Pack(big.NewInt(42))
		case "getContractOwner":
			return m.Outputs.Pack(owner)
		}
		return nil, errors.New("execution reverted")
	})

	submitter, err := app.NewSubmitter(ctrl, NewSigner(domain.PrivateChain()), fastSubmitterConfig(), &mockLogger{})
	require.NoError(t, err)
	svc, err := app.NewLedgerService(ctrl, submitter, contract, ratelimit.New(0, 0), &mockLogger{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ctrl.Connect(ctx))

	supply, err := svc.TotalSupplyOf(ctx, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, int64(42), supply.Int64())

	got, err := svc.GetContractOwner(ctx)
	require.NoError(t, err)
	require.Equal(t, owner, got)

	_, err = svc.OwnedSpecs(ctx, owner)
	require.True(t, apperror.HasCode(err, apperror.CodeContractCallFailed), "got %v", err)
	require.Equal(t, 3, node.Calls())

	acct := newTestAccount(t)
	hash, err := svc.Mint(ctx, acct.account, domain.MintParams{To: owner, SpecID: big.NewInt(7), MediaID: "m"})
	require.NoError(t, err)

	txs := node.Transactions()
	require.Len(t, txs, 1)
	require.Equal(t, hash, txs[0].Hash())
	require.Equal(t, contract.ABI().Methods["mint"].ID, txs[0].Data()[:4])
}
