// Package nodetest runs in-process ledger nodes for integration tests.
// Node speaks the eth and net JSON-RPC namespaces over websocket using
// go-ethereum's own rpc server; Silent accepts websockets and never
// answers.
package nodetest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultChainID is the chain id Node accepts signatures for.
var DefaultChainID = big.NewInt(11421)

// CallHandler answers eth_call.
type CallHandler func(to common.Address, data []byte) ([]byte, error)

// Node is a minimal ledger node. Every accepted transaction is mined
// into its own block immediately unless receipts are withheld.
type Node struct {
	chainID *big.Int
	signer  types.Signer

	rpcSrv  *rpc.Server
	httpSrv *httptest.Server

	mu              sync.Mutex
	head            uint64
	blockStep       uint64
	nonces          map[common.Address]uint64
	receipts        map[common.Hash]*types.Receipt
	txs             []*types.Transaction
	listening       bool
	withhold        bool
	revert          bool
	reject          error
	call            CallHandler
	callCount       int
	nonceLookups    int
	receiptRequests int

	logs     event.Feed
	logSubs  atomic.Int32
	closeOne sync.Once
}

// Option configures a Node.
type Option func(*Node)

// WithChainID overrides the accepted chain id.
func WithChainID(id *big.Int) Option {
	return func(n *Node) { n.chainID = id }
}

// WithHead sets the starting block number.
func WithHead(head uint64) Option {
	return func(n *Node) { n.head = head }
}

// New starts a node and registers its shutdown with t.
func New(t testing.TB, opts ...Option) *Node {
	t.Helper()

	n := &Node{
		chainID:   DefaultChainID,
		nonces:    make(map[common.Address]uint64),
		receipts:  make(map[common.Hash]*types.Receipt),
		listening: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.signer = types.NewEIP155Signer(n.chainID)

	n.rpcSrv = rpc.NewServer()
	if err := n.rpcSrv.RegisterName("eth", &ethAPI{n: n}); err != nil {
		t.Fatalf("register eth api: %v", err)
	}
	if err := n.rpcSrv.RegisterName("net", &netAPI{n: n}); err != nil {
		t.Fatalf("register net api: %v", err)
	}
	n.httpSrv = httptest.NewServer(n.rpcSrv.WebsocketHandler([]string{"*"}))

	t.Cleanup(n.Close)
	return n
}

// URL returns the websocket endpoint.
func (n *Node) URL() string {
	return "ws://" + strings.TrimPrefix(n.httpSrv.URL, "http://")
}

// Close stops the node and drops every connection.
func (n *Node) Close() {
	n.closeOne.Do(func() {
		n.rpcSrv.Stop()
		n.httpSrv.Close()
	})
}

// SetListening controls the net_listening answer.
func (n *Node) SetListening(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listening = v
}

// WithholdReceipts keeps accepted transactions unmined.
func (n *Node) WithholdReceipts(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.withhold = v
}

// SetRevert makes mined transactions fail execution.
func (n *Node) SetRevert(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revert = v
}

// RejectTransactions makes eth_sendRawTransaction fail with err. Pass
// nil to accept again.
func (n *Node) RejectTransactions(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reject = err
}

// SetBlockStep advances the head by step on every eth_blockNumber call.
func (n *Node) SetBlockStep(step uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blockStep = step
}

// SetNonce sets the next nonce of addr.
func (n *Node) SetNonce(addr common.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonces[addr] = nonce
}

// HandleCalls installs the eth_call handler.
func (n *Node) HandleCalls(h CallHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.call = h
}

// Transactions returns every accepted transaction in arrival order.
func (n *Node) Transactions() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.Transaction(nil), n.txs...)
}

// Sender recovers the signer of tx under the node's chain id.
func (n *Node) Sender(tx *types.Transaction) (common.Address, error) {
	return types.Sender(n.signer, tx)
}

// Calls returns how many eth_call requests were served.
func (n *Node) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.callCount
}

// NonceLookups returns how many eth_getTransactionCount requests were served.
func (n *Node) NonceLookups() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonceLookups
}

// ReceiptRequests returns how many eth_getTransactionReceipt requests were served.
func (n *Node) ReceiptRequests() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.receiptRequests
}

// LogSubscriptions returns the number of live logs subscriptions.
func (n *Node) LogSubscriptions() int {
	return int(n.logSubs.Load())
}

// Emit publishes a log to every matching subscription.
func (n *Node) Emit(l types.Log) {
	n.logs.Send(&l)
}

func (n *Node) accept(tx *types.Transaction) (common.Hash, error) {
	from, err := types.Sender(n.signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.reject != nil {
		return common.Hash{}, n.reject
	}
	if want := n.nonces[from]; tx.Nonce() != want {
		return common.Hash{}, fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), want)
	}
	n.nonces[from]++
	n.txs = append(n.txs, tx)

	if n.withhold {
		return tx.Hash(), nil
	}

	n.head++
	status := types.ReceiptStatusSuccessful
	if n.revert {
		status = types.ReceiptStatusFailed
	}
	n.receipts[tx.Hash()] = &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            status,
		CumulativeGasUsed: 21000,
		Logs:              []*types.Log{},
		TxHash:            tx.Hash(),
		GasUsed:           21000,
		BlockHash:         common.BigToHash(new(big.Int).SetUint64(n.head)),
		BlockNumber:       new(big.Int).SetUint64(n.head),
	}
	return tx.Hash(), nil
}

type ethAPI struct {
	n *Node
}

func (api *ethAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(api.n.chainID)
}

func (api *ethAPI) BlockNumber() hexutil.Uint64 {
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.head += api.n.blockStep
	return hexutil.Uint64(api.n.head)
}

func (api *ethAPI) GetTransactionCount(addr common.Address, block string) hexutil.Uint64 {
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.nonceLookups++
	return hexutil.Uint64(api.n.nonces[addr])
}

func (api *ethAPI) SendRawTransaction(input hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(input); err != nil {
		return common.Hash{}, fmt.Errorf("decode transaction: %w", err)
	}
	return api.n.accept(tx)
}

func (api *ethAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	api.n.receiptRequests++
	return api.n.receipts[hash]
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (api *ethAPI) Call(args callArgs, block *string) (hexutil.Bytes, error) {
	api.n.mu.Lock()
	h := api.n.call
	api.n.callCount++
	api.n.mu.Unlock()

	if h == nil {
		return nil, errors.New("execution reverted")
	}
	if args.To == nil {
		return nil, errors.New("missing call target")
	}

	var data []byte
	switch {
	case args.Input != nil:
		data = *args.Input
	case args.Data != nil:
		data = *args.Data
	}
	return h(*args.To, data)
}

type filterCriteria struct {
	Address []common.Address `json:"address"`
	Topics  [][]common.Hash  `json:"topics"`
}

func (f filterCriteria) matches(l *types.Log) bool {
	if len(f.Address) > 0 {
		found := false
		for _, a := range f.Address {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for i, alternatives := range f.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(l.Topics) {
			return false
		}
		found := false
		for _, topic := range alternatives {
			if topic == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Logs serves eth_subscribe("logs", criteria).
func (api *ethAPI) Logs(ctx context.Context, crit filterCriteria) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}

	sub := notifier.CreateSubscription()
	ch := make(chan *types.Log, 16)
	feedSub := api.n.logs.Subscribe(ch)
	api.n.logSubs.Add(1)

	go func() {
		defer api.n.logSubs.Add(-1)
		defer feedSub.Unsubscribe()

		for {
			select {
			case l := <-ch:
				if crit.matches(l) {
					_ = notifier.Notify(sub.ID, l)
				}
			case <-sub.Err():
				return
			case <-feedSub.Err():
				return
			}
		}
	}()

	return sub, nil
}

type netAPI struct {
	n *Node
}

func (api *netAPI) Listening() bool {
	api.n.mu.Lock()
	defer api.n.mu.Unlock()
	return api.n.listening
}

func (api *netAPI) Version() string {
	return api.n.chainID.String()
}
