package provider

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/chainprobe/chainprobe/internal/normalize"
)

// Bitcoin balances arrive in satoshis; shift by 8 to get BTC.
const satoshiExponent = -8

// blockchainInfo queries the blockchain.info balance endpoint, which keys
// its response by the queried address:
//
//	{"1A1zP1...": {"final_balance": 250000000, ...}}
type blockchainInfo struct {
	baseURL string
}

func (p blockchainInfo) Name() string { return "blockchain.info" }

func (p blockchainInfo) BalanceURL(address string) string {
	return fmt.Sprintf("%s/balance?active=%s", p.baseURL, url.QueryEscape(address))
}

func (p blockchainInfo) Normalize(payload any) (decimal.Decimal, error) {
	for _, rec := range normalize.Records(payload) {
		v, ok := normalize.Field(rec, []string{"final_balance"})
		if !ok {
			continue
		}
		sats, err := normalize.Amount(v)
		if err != nil {
			return decimal.Zero, err
		}
		return sats.Shift(satoshiExponent), nil
	}
	return decimal.Zero, fmt.Errorf("no balance record: %w", normalize.ErrBadBalance)
}

// esplora covers Esplora-style APIs (blockstream.info, mempool.space). The
// confirmed balance is funded minus spent from chain_stats:
//
//	{"address": "...", "chain_stats": {"funded_txo_sum": ..., "spent_txo_sum": ...}}
type esplora struct {
	name    string
	baseURL string
}

func (p esplora) Name() string { return p.name }

func (p esplora) BalanceURL(address string) string {
	return fmt.Sprintf("%s/api/address/%s", p.baseURL, url.PathEscape(address))
}

func (p esplora) Normalize(payload any) (decimal.Decimal, error) {
	rec, ok := payload.(map[string]any)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected response shape: %w", normalize.ErrBadBalance)
	}
	stats, ok := rec["chain_stats"].(map[string]any)
	if !ok {
		return decimal.Zero, fmt.Errorf("missing chain_stats: %w", normalize.ErrBadBalance)
	}
	funded, err := normalize.Amount(stats["funded_txo_sum"])
	if err != nil {
		return decimal.Zero, err
	}
	spent, err := normalize.Amount(stats["spent_txo_sum"])
	if err != nil {
		return decimal.Zero, err
	}
	return funded.Sub(spent).Shift(satoshiExponent), nil
}

// blockCypher queries the BlockCypher address balance endpoint:
//
//	{"address": "...", "balance": ..., "final_balance": ...}
type blockCypher struct {
	baseURL string
}

func (p blockCypher) Name() string { return "blockcypher" }

func (p blockCypher) BalanceURL(address string) string {
	return fmt.Sprintf("%s/v1/btc/main/addrs/%s/balance", p.baseURL, url.PathEscape(address))
}

func (p blockCypher) Normalize(payload any) (decimal.Decimal, error) {
	rec, ok := payload.(map[string]any)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected response shape: %w", normalize.ErrBadBalance)
	}
	v, ok := normalize.Field(rec, []string{"final_balance", "balance"})
	if !ok {
		return decimal.Zero, fmt.Errorf("no balance field: %w", normalize.ErrBadBalance)
	}
	sats, err := normalize.Amount(v)
	if err != nil {
		return decimal.Zero, err
	}
	return sats.Shift(satoshiExponent), nil
}
