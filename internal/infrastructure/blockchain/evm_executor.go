package blockchain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/usecases"
)

// evmInstructions is the chain-specific payload a Quote carries in
// execution_instructions for an EVM execution chain: a plain value transfer
// or contract call the treasury signs and submits as-is.
type evmInstructions struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data,omitempty"`
}

// EVMExecutor is the ChainSubmitter for an EVM execution chain. It signs
// with a single treasury key held in process memory and never delegates
// signing to an external wallet: the treasury-pull model requires the
// service itself to hold spending authority.
type EVMExecutor struct {
	client          *EVMClient
	chain           entities.Chain
	privateKey      *ecdsa.PrivateKey
	treasuryAddress common.Address
	tokenAddress    string // empty: native asset

	pollInterval time.Duration
	shortTimeout time.Duration
	longTimeout  time.Duration
}

// NewEVMExecutor wires an EVMExecutor for chain against client, signing
// with privateKeyHex (no 0x prefix required). tokenAddress is empty for the
// chain's native asset, or an ERC-20 contract address otherwise.
func NewEVMExecutor(chain entities.Chain, client *EVMClient, privateKeyHex, tokenAddress string) (*EVMExecutor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid treasury private key: %w", err)
	}
	return &EVMExecutor{
		client:          client,
		chain:           chain,
		privateKey:      key,
		treasuryAddress: crypto.PubkeyToAddress(key.PublicKey),
		tokenAddress:    tokenAddress,
		pollInterval:    3 * time.Second,
		shortTimeout:    usecases.DefaultConfirmationTimeoutShort,
		longTimeout:     usecases.DefaultConfirmationTimeoutLong,
	}, nil
}

func (e *EVMExecutor) Chain() entities.Chain { return e.chain }

// TreasuryBalance reports the treasury's balance of the chain's configured
// settlement asset: native if tokenAddress is empty, ERC-20 otherwise.
func (e *EVMExecutor) TreasuryBalance(ctx context.Context) (decimal.Decimal, error) {
	var raw *big.Int
	var err error
	if e.tokenAddress == "" {
		raw, err = e.client.GetBalance(ctx, e.treasuryAddress.Hex())
	} else {
		raw, err = e.client.GetTokenBalance(ctx, e.tokenAddress, e.treasuryAddress.Hex())
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(raw, 0), nil
}

// Submit deserializes quote.ExecutionInstructions, builds and signs a
// legacy transaction from the treasury account, and broadcasts it.
func (e *EVMExecutor) Submit(ctx context.Context, quote *entities.Quote) (string, error) {
	var ins evmInstructions
	if err := json.Unmarshal(quote.ExecutionInstructions, &ins); err != nil {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "malformed execution instructions: "+err.Error())
	}
	if !common.IsHexAddress(ins.To) {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "execution instructions: invalid to address")
	}

	value, ok := new(big.Int).SetString(ins.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(ins.Data, "0x"))
	if err != nil {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "execution instructions: invalid data")
	}
	to := common.HexToAddress(ins.To)

	nonce, err := e.client.PendingNonceAt(ctx, e.treasuryAddress.Hex())
	if err != nil {
		return "", err
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}

	callMsg := ethereum.CallMsg{From: e.treasuryAddress, To: &to, Value: value, Data: data}
	if _, err := e.client.CallView(ctx, ins.To, data); err != nil {
		return "", fmt.Errorf("simulation reverted: %w", err)
	}
	gasLimit, err := e.client.EstimateGas(ctx, callMsg)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signer := types.LatestSignerForChainID(e.client.ChainID())
	signedTx, err := types.SignTx(tx, signer, e.privateKey)
	if err != nil {
		return "", err
	}
	if err := e.client.SendRawTransaction(ctx, signedTx); err != nil {
		return "", err
	}
	return signedTx.Hash().Hex(), nil
}

// PollConfirmation checks frequently during the short phase, then falls back
// to a slower cadence through the extended phase; exceeding it without a
// receipt yields Timeout.
func (e *EVMExecutor) PollConfirmation(ctx context.Context, txHash string) (usecases.ConfirmationStatus, *uint64, error) {
	start := time.Now()
	deadline := start.Add(e.longTimeout)
	interval := e.pollInterval

	for {
		receipt, err := e.client.GetTransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			gasUsed := receipt.GasUsed
			if receipt.Status == types.ReceiptStatusSuccessful {
				return usecases.ConfirmationConfirmed, &gasUsed, nil
			}
			return usecases.ConfirmationReverted, &gasUsed, nil
		}
		if time.Now().After(deadline) {
			return usecases.ConfirmationTimeout, nil, nil
		}
		if time.Since(start) > e.shortTimeout {
			interval = e.pollInterval * 4
		}
		select {
		case <-ctx.Done():
			return usecases.ConfirmationTimeout, nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
