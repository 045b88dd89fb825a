package blockchain

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/usecases"
)

// svmInstructions is the chain-specific payload a Quote carries in
// execution_instructions for the Solana execution chain: a native SOL
// transfer from the treasury to recipient, in lamports.
type svmInstructions struct {
	To       string `json:"to"`
	Lamports string `json:"lamports"`
}

// SVMExecutor is the ChainSubmitter for Solana. The module carries no
// solana-go dependency, so transaction construction, signing, and
// submission are implemented directly against the JSON-RPC surface (see
// SolanaClient and solana_tx.go) rather than through an SDK.
type SVMExecutor struct {
	client     *SolanaClient
	chain      entities.Chain
	privateKey ed25519.PrivateKey
	treasury   [32]byte

	pollInterval time.Duration
	shortTimeout time.Duration
	longTimeout  time.Duration
}

// NewSVMExecutor wires an SVMExecutor against client, signing with the
// base58-encoded 64-byte ed25519 secret key secretKeyBase58 (seed||pubkey,
// the format exported by the Solana CLI and most wallets).
func NewSVMExecutor(chain entities.Chain, client *SolanaClient, secretKeyBase58 string) (*SVMExecutor, error) {
	raw, err := base58Decode(secretKeyBase58)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid treasury secret key: expected %d-byte ed25519 key", ed25519.PrivateKeySize)
	}
	key := ed25519.PrivateKey(raw)
	pub := key.Public().(ed25519.PublicKey)

	var treasury [32]byte
	copy(treasury[:], pub)

	return &SVMExecutor{
		client:       client,
		chain:        chain,
		privateKey:   key,
		treasury:     treasury,
		pollInterval: 2 * time.Second,
		shortTimeout: usecases.DefaultConfirmationTimeoutShort,
		longTimeout:  usecases.DefaultConfirmationTimeoutLong,
	}, nil
}

func (e *SVMExecutor) Chain() entities.Chain { return e.chain }

// TreasuryBalance reports the treasury account's lamport balance.
func (e *SVMExecutor) TreasuryBalance(ctx context.Context) (decimal.Decimal, error) {
	lamports, err := e.client.GetBalance(ctx, base58Encode(e.treasury[:]))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0), nil
}

// Submit deserializes quote.ExecutionInstructions, builds a single-instruction
// System Program transfer from the treasury, signs it with the treasury key,
// and broadcasts it.
func (e *SVMExecutor) Submit(ctx context.Context, quote *entities.Quote) (string, error) {
	var ins svmInstructions
	if err := json.Unmarshal(quote.ExecutionInstructions, &ins); err != nil {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "malformed execution instructions: "+err.Error())
	}
	recipient, err := base58Decode(ins.To)
	if err != nil || len(recipient) != 32 {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "execution instructions: invalid recipient address")
	}
	lamports, ok := new(big.Int).SetString(ins.Lamports, 10)
	if !ok || !lamports.IsUint64() {
		return "", domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "execution instructions: invalid lamports amount")
	}

	blockhash, err := e.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	blockhashBytes, err := base58Decode(blockhash)
	if err != nil || len(blockhashBytes) != 32 {
		return "", fmt.Errorf("unexpected blockhash from rpc node")
	}

	var recipientKey, blockhashKey [32]byte
	copy(recipientKey[:], recipient)
	copy(blockhashKey[:], blockhashBytes)

	message := buildTransferMessage(e.treasury, recipientKey, lamports.Uint64(), blockhashKey)
	sig := ed25519.Sign(e.privateKey, message)
	var sigArr [64]byte
	copy(sigArr[:], sig)

	wire := serializeSignedTransaction(sigArr, message)
	signature, err := e.client.SendTransaction(ctx, base64.StdEncoding.EncodeToString(wire))
	if err != nil {
		return "", err
	}
	return signature, nil
}

// PollConfirmation checks frequently during the short phase, then falls back
// to a slower cadence through the extended phase; exceeding it without
// reaching "confirmed" commitment yields Timeout.
func (e *SVMExecutor) PollConfirmation(ctx context.Context, txHash string) (usecases.ConfirmationStatus, *uint64, error) {
	start := time.Now()
	deadline := start.Add(e.longTimeout)
	interval := e.pollInterval

	for {
		status, err := e.client.GetSignatureStatus(ctx, txHash)
		if err == nil {
			if status.Failed {
				return usecases.ConfirmationReverted, nil, nil
			}
			if status.Confirmed {
				return usecases.ConfirmationConfirmed, nil, nil
			}
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
