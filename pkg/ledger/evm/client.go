package evm

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fadedpez/tucoroulette/internal/logging"
	"github.com/fadedpez/tucoroulette/pkg/ledger"
)

var (
	//go:embed abi/roulette.json
	rouletteABIJSON []byte
	//go:embed abi/erc20.json
	erc20ABIJSON []byte
)

// Backend is the subset of an Ethereum RPC client the ledger uses. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *gethtypes.Transaction, isPending bool, err error)
}

// Signer produces transaction options for a custodial account
type Signer interface {
	TransactOpts(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}

// Config holds client configuration
type Config struct {
	RPCURL        string
	ChainID       int64
	GameContract  string
	TokenContract string
	// Interface is "current", "legacy" or "auto"
	Interface    string
	PollInterval time.Duration // receipt polling, default 1s
}

// Client implements ledger.Ledger against an EVM chain
type Client struct {
	backend      Backend
	signer       Signer
	logger       *logging.Logger
	chainID      *big.Int
	game         common.Address
	token        common.Address
	gameABI      abi.ABI
	tokenABI     abi.ABI
	gameContract *bind.BoundContract
	tokenBound   *bind.BoundContract
	caps         ledger.Capabilities
	pollInterval time.Duration
}

var _ ledger.Ledger = (*Client)(nil)

// Dial connects to the RPC endpoint, checks the chain id and resolves capabilities
func Dial(ctx context.Context, cfg Config, signer Signer, logger *logging.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}
	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	c, err := NewClient(ctx, rpc, cfg, signer, logger)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	return c, nil
}

// NewClient builds a client over an existing backend
func NewClient(ctx context.Context, backend Backend, cfg Config, signer Signer, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default
	}
	if !common.IsHexAddress(cfg.GameContract) {
		return nil, fmt.Errorf("invalid game contract address %q", cfg.GameContract)
	}
	if !common.IsHexAddress(cfg.TokenContract) {
		return nil, fmt.Errorf("invalid token contract address %q", cfg.TokenContract)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("connected to chain %s, expected %d", chainID, cfg.ChainID)
	}

	gameABI, err := abi.JSON(bytes.NewReader(rouletteABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse roulette abi: %w", err)
	}
	tokenABI, err := abi.JSON(bytes.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = time.Second
	}

	c := &Client{
		backend:      backend,
		signer:       signer,
		logger:       logger.WithField("component", "ledger"),
		chainID:      chainID,
		game:         common.HexToAddress(cfg.GameContract),
		token:        common.HexToAddress(cfg.TokenContract),
		gameABI:      gameABI,
		tokenABI:     tokenABI,
		pollInterval: pollInterval,
	}
	c.gameContract = bind.NewBoundContract(c.game, gameABI, backend, backend, backend)
	c.tokenBound = bind.NewBoundContract(c.token, tokenABI, backend, backend, backend)

	iface, fixed, err := ledger.ParseInterface(cfg.Interface)
	if err != nil {
		return nil, err
	}
	if !fixed {
		if iface, err = c.probeInterface(ctx); err != nil {
			return nil, err
		}
	}
	c.caps = ledger.CapabilitiesFor(iface)
	c.logger.Info("Connected to chain %s, game %s, %s interface", chainID, c.game.Hex(), iface)

	return c, nil
}

// probeInterface makes one getBetHistory call; a contract that cannot answer it is legacy
func (c *Client) probeInterface(ctx context.Context) (ledger.Interface, error) {
	var out []interface{}
	err := c.gameContract.Call(&bind.CallOpts{Context: ctx}, &out, "getBetHistory", common.Address{}, big.NewInt(0), big.NewInt(1))
	switch {
	case err == nil:
		return ledger.InterfaceCurrent, nil
	case ledger.IsNoData(err), isRevert(err), errors.Is(err, bind.ErrNoCode):
		return ledger.InterfaceLegacy, nil
	default:
		return ledger.InterfaceCurrent, fmt.Errorf("probe ledger interface: %w", err)
	}
}

func (c *Client) Capabilities() ledger.Capabilities { return c.caps }

func (c *Client) Spender() string { return c.game.Hex() }

func (c *Client) Balance(ctx context.Context, account string) (*big.Int, error) {
	addr, err := parseAddress(account)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	if err := c.tokenBound.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", addr); err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) Allowance(ctx context.Context, account, spender string) (*big.Int, error) {
	owner, err := parseAddress(account)
	if err != nil {
		return nil, err
	}
	spenderAddr, err := parseAddress(spender)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	if err := c.tokenBound.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spenderAddr); err != nil {
		return nil, fmt.Errorf("allowance: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// QuoteGas returns the raw estimate and network price; margins are the caller's business
func (c *Client) QuoteGas(ctx context.Context, account string, call ledger.Call) (ledger.GasQuote, error) {
	from, err := parseAddress(account)
	if err != nil {
		return ledger.GasQuote{}, err
	}
	to, data, err := c.encodeCall(call)
	if err != nil {
		return ledger.GasQuote{}, err
	}

	limit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return ledger.GasQuote{}, fmt.Errorf("estimate %s: %w", call.Kind, withRevertReason(err))
	}
	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return ledger.GasQuote{}, fmt.Errorf("gas price: %w", err)
	}
	return ledger.GasQuote{Limit: limit, Price: price}, nil
}

func (c *Client) PlaceBets(ctx context.Context, account string, wagers []ledger.Wager, quote ledger.GasQuote) (ledger.TxHandle, error) {
	return c.transact(ctx, c.gameContract, account, quote, "placeBets", toBetArgs(wagers))
}

func (c *Client) Approve(ctx context.Context, account, spender string, amount *big.Int, quote ledger.GasQuote) (ledger.TxHandle, error) {
	spenderAddr, err := parseAddress(spender)
	if err != nil {
		return ledger.TxHandle{}, err
	}
	return c.transact(ctx, c.tokenBound, account, quote, "approve", spenderAddr, amount)
}

func (c *Client) RecoverOwnStuckGame(ctx context.Context, account string, quote ledger.GasQuote) (ledger.TxHandle, error) {
	if !c.caps.HasSelfRecovery {
		return ledger.TxHandle{}, ledger.ErrUnsupported
	}
	return c.transact(ctx, c.gameContract, account, quote, "recoverOwnStuckGame")
}

func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, account string, quote ledger.GasQuote, method string, params ...interface{}) (ledger.TxHandle, error) {
	from, err := parseAddress(account)
	if err != nil {
		return ledger.TxHandle{}, err
	}
	opts, err := c.signer.TransactOpts(ctx, from, c.chainID)
	if err != nil {
		return ledger.TxHandle{}, err
	}
	opts.Context = ctx
	opts.GasLimit = quote.Limit
	opts.GasPrice = quote.Price

	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return ledger.TxHandle{}, fmt.Errorf("%s: %w", method, withRevertReason(err))
	}
	c.logger.WithFields(map[string]interface{}{
		"account": from.Hex(),
		"tx":      tx.Hash().Hex(),
		"nonce":   tx.Nonce(),
	}).Info("Broadcast %s", method)

	return ledger.TxHandle{Hash: tx.Hash().Hex(), Nonce: tx.Nonce(), SentAt: time.Now()}, nil
}

// WaitMined polls for the receipt until ctx is done
func (c *Client) WaitMined(ctx context.Context, tx ledger.TxHandle) (ledger.Receipt, error) {
	hash := common.HexToHash(tx.Hash)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return c.toReceipt(ctx, receipt), nil
		case !errors.Is(err, ethereum.NotFound):
			c.logger.Debug("Receipt lookup for %s failed: %v", tx.Hash, err)
		}

		select {
		case <-ctx.Done():
			return ledger.Receipt{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) GameStatus(ctx context.Context, account string) (ledger.RawGameStatus, error) {
	addr, err := parseAddress(account)
	if err != nil {
		return ledger.RawGameStatus{}, err
	}
	var out []interface{}
	if err := c.gameContract.Call(&bind.CallOpts{Context: ctx}, &out, "getGameStatus", addr); err != nil {
		return ledger.RawGameStatus{}, fmt.Errorf("getGameStatus: %w", err)
	}
	return decodeGameStatus(out)
}

func (c *Client) BetHistory(ctx context.Context, account string, offset, limit uint64) ([]ledger.RawRound, uint64, error) {
	if !c.caps.HasHistory {
		return nil, 0, ledger.ErrUnsupported
	}
	addr, err := parseAddress(account)
	if err != nil {
		return nil, 0, err
	}
	var out []interface{}
	err = c.gameContract.Call(&bind.CallOpts{Context: ctx}, &out, "getBetHistory",
		addr, new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("getBetHistory: %w", err)
	}
	return decodeHistory(out)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}

func (c *Client) encodeCall(call ledger.Call) (common.Address, []byte, error) {
	var (
		data []byte
		err  error
	)
	switch call.Kind {
	case ledger.CallPlaceBets:
		data, err = c.gameABI.Pack("placeBets", toBetArgs(call.Wagers))
		return c.game, data, err
	case ledger.CallApprove:
		spender, perr := parseAddress(call.Spender)
		if perr != nil {
			return common.Address{}, nil, perr
		}
		data, err = c.tokenABI.Pack("approve", spender, call.Amount)
		return c.token, data, err
	case ledger.CallRecover:
		if !c.caps.HasSelfRecovery {
			return common.Address{}, nil, ledger.ErrUnsupported
		}
		data, err = c.gameABI.Pack("recoverOwnStuckGame")
		return c.game, data, err
	default:
		return common.Address{}, nil, fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

func (c *Client) toReceipt(ctx context.Context, r *gethtypes.Receipt) ledger.Receipt {
	out := ledger.Receipt{
		TxHash:      r.TxHash.Hex(),
		Succeeded:   r.Status == gethtypes.ReceiptStatusSuccessful,
		BlockNumber: r.BlockNumber.Uint64(),
		GasUsed:     r.GasUsed,
		RequestID:   requestIDFromLogs(c.gameABI, c.game, r.Logs),
	}
	if !out.Succeeded {
		out.RevertReason = c.replayRevertReason(ctx, r)
	}
	return out
}

// replayRevertReason re-executes a failed transaction at its block to read the revert data
func (c *Client) replayRevertReason(ctx context.Context, r *gethtypes.Receipt) string {
	tx, _, err := c.backend.TransactionByHash(ctx, r.TxHash)
	if err != nil {
		return ""
	}
	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return ""
	}
	_, err = c.backend.CallContract(ctx, ethereum.CallMsg{
		From: from, To: tx.To(), Gas: tx.Gas(), GasPrice: tx.GasPrice(), Data: tx.Data(),
	}, r.BlockNumber)
	if err == nil {
		return ""
	}
	if reason, ok := revertReason(err); ok {
		return reason
	}
	return err.Error()
}
