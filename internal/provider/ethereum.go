package provider

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/chainprobe/chainprobe/internal/normalize"
)

// ethplorer queries the getAddressInfo endpoint. Token records carry their
// metadata under tokenInfo and both a float balance and a precise
// rawBalance string; normalization prefers the raw form.
type ethplorer struct {
	baseURL string
	apiKey  string
	rule    normalize.TokenRule
}

func (p ethplorer) Name() string { return "ethplorer" }

func (p ethplorer) BalanceURL(address string) string {
	return fmt.Sprintf("%s/getAddressInfo/%s?apiKey=%s", p.baseURL, url.PathEscape(address), url.QueryEscape(p.apiKey))
}

func (p ethplorer) Normalize(payload any) (decimal.Decimal, error) {
	return normalize.TokenBalance(payload, p.rule)
}

// blockscout queries the v2 token-balances endpoint, which returns a bare
// array of {token: {...}, value: "..."} records.
type blockscout struct {
	baseURL string
	rule    normalize.TokenRule
}

func (p blockscout) Name() string { return "blockscout" }

func (p blockscout) BalanceURL(address string) string {
	return fmt.Sprintf("%s/api/v2/addresses/%s/token-balances", p.baseURL, url.PathEscape(address))
}

func (p blockscout) Normalize(payload any) (decimal.Decimal, error) {
	return normalize.TokenBalance(payload, p.rule)
}
