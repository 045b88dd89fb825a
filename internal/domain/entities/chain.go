package entities

import (
	"fmt"
	"strings"
)

// ChainType distinguishes the transaction-building model a Chain uses:
// EVM (calldata + ABI encoding) or SVM (instruction + account list).
type ChainType string

const (
	ChainTypeEVM ChainType = "EVM"
	ChainTypeSVM ChainType = "SVM"
)

// PricingModel selects which worst-case cost formula QuoteEngine applies.
type PricingModel string

const (
	PricingCompute PricingModel = "COMPUTE"
	PricingFlat    PricingModel = "FLAT"
	PricingGas     PricingModel = "GAS"
)

// Chain is the closed enumeration of chains this service funds from or
// executes on. This is a fixed set, not a DB-row registry: new chains
// require a code change and a new Executor, not a row insert, because each
// one needs its own treasury key and RPC wiring.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
	ChainBase     Chain = "base"
)

// chainMeta carries the static properties of a Chain that the rest of the
// domain needs: its CAIP-2 namespace, its transaction-building model, and
// the cost formula Executors price it with.
type chainMeta struct {
	caip2Namespace string
	caip2Reference string
	chainType      ChainType
	pricing        PricingModel
}

var chainRegistry = map[Chain]chainMeta{
	ChainEthereum: {caip2Namespace: "eip155", caip2Reference: "1", chainType: ChainTypeEVM, pricing: PricingGas},
	ChainBase:     {caip2Namespace: "eip155", caip2Reference: "8453", chainType: ChainTypeEVM, pricing: PricingGas},
	ChainSolana:   {caip2Namespace: "solana", caip2Reference: "mainnet-beta", chainType: ChainTypeSVM, pricing: PricingCompute},
}

// IsValid reports whether c is a recognized chain.
func (c Chain) IsValid() bool {
	_, ok := chainRegistry[c]
	return ok
}

// Type returns the transaction-building model for c.
func (c Chain) Type() ChainType {
	return chainRegistry[c].chainType
}

// PricingModel returns the cost formula QuoteEngine applies for executions
// on c.
func (c Chain) PricingModel() PricingModel {
	return chainRegistry[c].pricing
}

// CAIP2ID returns the CAIP-2 formatted chain identifier, e.g. "eip155:8453".
func (c Chain) CAIP2ID() string {
	meta, ok := chainRegistry[c]
	if !ok {
		return string(c)
	}
	return fmt.Sprintf("%s:%s", meta.caip2Namespace, meta.caip2Reference)
}

// allowedPairs is the funding→execution allowlist. funding == execution is
// never valid regardless of this table.
var allowedPairs = map[Chain]map[Chain]bool{
	ChainEthereum: {ChainBase: true, ChainSolana: true},
	ChainBase:     {ChainEthereum: true, ChainSolana: true},
	ChainSolana:   {ChainEthereum: true, ChainBase: true},
}

// AllowedPair reports whether funds may flow from funding into execution.
// funding == execution is always rejected even if a table entry exists.
func AllowedPair(funding, execution Chain) bool {
	if funding == execution {
		return false
	}
	return allowedPairs[funding][execution]
}

// Asset identifies a fungible unit on a specific chain. ContractAddress is
// nil for the chain's native asset.
type Asset struct {
	Chain           Chain   `json:"chain"`
	Symbol          string  `json:"symbol"`
	ContractAddress *string `json:"contract_address,omitempty"`
	Decimals        int     `json:"decimals"`
}

// IsNative reports whether a represents the chain's native gas asset.
func (a Asset) IsNative() bool {
	return a.ContractAddress == nil
}

var nativeAssets = map[Chain]Asset{
	ChainEthereum: {Chain: ChainEthereum, Symbol: "ETH", Decimals: 18},
	ChainBase:     {Chain: ChainBase, Symbol: "ETH", Decimals: 18},
	ChainSolana:   {Chain: ChainSolana, Symbol: "SOL", Decimals: 9},
}

// NativeAsset returns the native gas asset for chain c.
func NativeAsset(c Chain) Asset {
	return nativeAssets[c]
}

// NormalizeNonce applies the case/whitespace normalization every unique
// nonce (Quote, TokenApproval) must go through before comparison or storage.
func NormalizeNonce(nonce string) string {
	return strings.ToLower(strings.TrimSpace(nonce))
}
