package provider

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/chainprobe/chainprobe/internal/normalize"
)

// tronscanTokens queries Tronscan's token list endpoint. USDT appears as a
// regular record with tokenAbbr/tokenId/balance/tokenDecimal fields.
type tronscanTokens struct {
	baseURL string
	rule    normalize.TokenRule
}

func (p tronscanTokens) Name() string { return "tronscan" }

func (p tronscanTokens) BalanceURL(address string) string {
	return fmt.Sprintf("%s/api/account/tokens?address=%s&limit=200", p.baseURL, url.QueryEscape(address))
}

func (p tronscanTokens) Normalize(payload any) (decimal.Decimal, error) {
	return normalize.TokenBalance(payload, p.rule)
}

// tronGrid queries TronGrid's account endpoint, whose trc20 section maps
// contract ids directly to raw balance strings:
//
//	{"data": [{"trc20": [{"TR7NHq...": "1500000"}], ...}]}
type tronGrid struct {
	baseURL string
	rule    normalize.TokenRule
}

func (p tronGrid) Name() string { return "trongrid" }

func (p tronGrid) BalanceURL(address string) string {
	return fmt.Sprintf("%s/v1/accounts/%s", p.baseURL, url.PathEscape(address))
}

func (p tronGrid) Normalize(payload any) (decimal.Decimal, error) {
	return normalize.TokenBalance(payload, p.rule)
}

// tronscanAccount queries Tronscan's account endpoint as a last resort; the
// token list sits under trc20token_balances.
type tronscanAccount struct {
	baseURL string
	rule    normalize.TokenRule
}

func (p tronscanAccount) Name() string { return "tronscan-account" }

func (p tronscanAccount) BalanceURL(address string) string {
	return fmt.Sprintf("%s/api/account?address=%s", p.baseURL, url.QueryEscape(address))
}

func (p tronscanAccount) Normalize(payload any) (decimal.Decimal, error) {
	return normalize.TokenBalance(payload, p.rule)
}
