package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/mintmotion/mintmotion-backend/pkg/config"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
)

// nativeDecimals is the exponent for the chain's base unit (wei).
const nativeDecimals = 18

// rpcReader is the slice of the ethclient surface the payment flow needs.
type rpcReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client reads payment transactions from an EVM chain over JSON-RPC.
type Client struct {
	rpc              rpcReader
	raw              *ethclient.Client
	receiptPoll      time.Duration
	minConfirmations uint64
}

// Transfer is the verified on-chain payment extracted from a receipt.
type Transfer struct {
	TxHash      string
	From        string
	To          string
	Value       decimal.Decimal
	BlockNumber uint64
	ChainID     int64
}

// New dials the configured RPC endpoint and verifies connectivity.
func New(ctx context.Context, cfg config.ChainConfig) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, errors.New("chain rpc url is required")
	}
	raw, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "dial chain rpc")
	}
	if _, err := raw.ChainID(ctx); err != nil {
		raw.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "query chain id")
	}
	return newClient(raw, raw, cfg), nil
}

func newClient(rpc rpcReader, raw *ethclient.Client, cfg config.ChainConfig) *Client {
	poll := cfg.ReceiptPoll
	if poll <= 0 {
		poll = 3 * time.Second
	}
	minConf := cfg.MinConfirmations
	if minConf < 1 {
		minConf = 1
	}
	return &Client{
		rpc:              rpc,
		raw:              raw,
		receiptPoll:      poll,
		minConfirmations: uint64(minConf),
	}
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c.raw != nil {
		c.raw.Close()
	}
}

// Ping verifies the RPC endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rpc == nil {
		return errors.New("chain client not initialized")
	}
	_, err := c.rpc.ChainID(ctx)
	return err
}

// NativeBalance returns the wallet's native balance in whole token units.
func (c *Client) NativeBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	if c == nil || c.rpc == nil {
		return decimal.Zero, errors.New("chain client not initialized")
	}
	if !common.IsHexAddress(wallet) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is not a valid hex address")
	}
	wei, err := c.rpc.BalanceAt(ctx, common.HexToAddress(wallet), nil)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "read wallet balance")
	}
	return FromWei(wei), nil
}

// WaitForReceipt polls for the transaction receipt until it lands with the
// configured confirmation depth or the context is cancelled.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if c == nil || c.rpc == nil {
		return nil, errors.New("chain client not initialized")
	}
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			confirmed, err := c.isConfirmed(ctx, receipt)
			if err != nil {
				return nil, err
			}
			if confirmed {
				return receipt, nil
			}
		case errors.Is(err, ethereum.NotFound):
			// still pending, keep polling
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "query transaction receipt")
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, ctx.Err(), "timed out waiting for transaction receipt")
		case <-ticker.C:
		}
	}
}

func (c *Client) isConfirmed(ctx context.Context, receipt *types.Receipt) (bool, error) {
	if c.minConfirmations <= 1 {
		return true, nil
	}
	head, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "query chain head")
	}
	if receipt.BlockNumber == nil {
		return false, nil
	}
	mined := receipt.BlockNumber.Uint64()
	return head >= mined && head-mined+1 >= c.minConfirmations, nil
}

// VerifyTransfer waits for txHash to confirm, then checks that it is a
// successful native transfer to the expected address carrying at least
// minValue. Returns the verified transfer details.
func (c *Client) VerifyTransfer(ctx context.Context, txHash, expectedTo string, minValue decimal.Decimal) (*Transfer, error) {
	if c == nil || c.rpc == nil {
		return nil, errors.New("chain client not initialized")
	}
	if !common.IsHexAddress(expectedTo) {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "receiving address is not a valid hex address")
	}

	receipt, err := c.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, pkgerrors.New(pkgerrors.CodeChainFailure, "transaction reverted on chain").WithDetails(map[string]string{"tx_hash": txHash})
	}

	tx, _, err := c.rpc.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "query transaction body")
	}
	if tx.To() == nil {
		return nil, pkgerrors.New(pkgerrors.CodeChainFailure, "transaction is a contract creation, not a transfer")
	}
	if *tx.To() != common.HexToAddress(expectedTo) {
		return nil, pkgerrors.New(pkgerrors.CodeChainFailure, "transaction does not pay the configured receiving address").WithDetails(map[string]string{
			"tx_hash": txHash,
			"paid_to": tx.To().Hex(),
		})
	}

	value := FromWei(tx.Value())
	if value.LessThan(minValue) {
		return nil, pkgerrors.New(pkgerrors.CodeChainFailure, "transaction value is below the order total").WithDetails(map[string]string{
			"tx_hash":  txHash,
			"paid":     value.String(),
			"required": minValue.String(),
		})
	}

	chainID := tx.ChainId()
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeChainFailure, err, "recover transaction sender")
	}

	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	return &Transfer{
		TxHash:      txHash,
		From:        from.Hex(),
		To:          tx.To().Hex(),
		Value:       value,
		BlockNumber: blockNumber,
		ChainID:     chainID.Int64(),
	}, nil
}

// FromWei converts a wei amount to whole native token units.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -nativeDecimals)
}

// ToWei converts whole native token units to wei, truncating sub-wei dust.
func ToWei(value decimal.Decimal) *big.Int {
	return value.Shift(nativeDecimals).Truncate(0).BigInt()
}
