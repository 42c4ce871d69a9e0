package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tronUSDT = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	ethUSDT  = "0xdac17f958d2ee523a2206206994597c13d831ec7"
)

func usdtRule(contracts ...string) TokenRule {
	return TokenRule{Symbol: "USDT", ContractIDs: contracts, Decimals: 6}
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestTokenBalance(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		rule TokenRule
		want string
	}{
		{
			name: "tronscan token list",
			raw:  `{"data":[{"tokenAbbr":"TRX","tokenId":"_","balance":"991000000"},{"tokenAbbr":"USDT","tokenId":"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t","balance":"1500000","tokenDecimal":6}]}`,
			rule: usdtRule(tronUSDT),
			want: "1.5",
		},
		{
			name: "trongrid contract keyed map",
			raw:  `{"data":[{"address":"TXYZa","trc20":[{"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t":"1500000"}]}]}`,
			rule: usdtRule(tronUSDT),
			want: "1.5",
		},
		{
			name: "ethplorer tokenInfo metadata",
			raw:  `{"tokens":[{"tokenInfo":{"symbol":"USDT","address":"0xdac17f958d2ee523a2206206994597c13d831ec7","decimals":"6"},"balance":1500000}]}`,
			rule: usdtRule(ethUSDT),
			want: "1.5",
		},
		{
			name: "blockscout token and value",
			raw:  `[{"token":{"symbol":"USDT","address":"0xdac17f958d2ee523a2206206994597c13d831ec7","decimals":"6"},"value":"1500000"}]`,
			rule: usdtRule(ethUSDT),
			want: "1.5",
		},
		{
			name: "symbol match with default decimals",
			raw:  `{"trc20":[{"symbol":"USDT","balance":"1500000"}]}`,
			rule: usdtRule(tronUSDT),
			want: "1.5",
		},
		{
			name: "symbol match is case insensitive",
			raw:  `{"trc20":[{"symbol":"usdt","balance":"2000000"}]}`,
			rule: usdtRule(tronUSDT),
			want: "2",
		},
		{
			name: "symbol alone suffices when contract differs",
			raw:  `[{"symbol":"USDT","contract":"0x000000000000000000000000000000000000dead","balance":"3000000"}]`,
			rule: usdtRule(ethUSDT),
			want: "3",
		},
		{
			name: "contract alone suffices when symbol differs",
			raw:  `[{"symbol":"USDT.e","contract":"0xdac17f958d2ee523a2206206994597c13d831ec7","balance":"4000000"}]`,
			rule: usdtRule(ethUSDT),
			want: "4",
		},
		{
			name: "contract match ignores casing",
			raw:  `[{"contract":"0xDAC17F958D2EE523A2206206994597C13D831EC7","balance":"42000000"}]`,
			rule: usdtRule(ethUSDT),
			want: "42",
		},
		{
			name: "missing decimals defaults to rule",
			raw:  `[{"symbol":"USDT","balance":"1500000"}]`,
			rule: usdtRule(ethUSDT),
			want: "1.5",
		},
		{
			name: "non numeric decimals falls back",
			raw:  `[{"symbol":"USDT","balance":"1500000","decimals":"lots"}]`,
			rule: usdtRule(ethUSDT),
			want: "1.5",
		},
		{
			name: "huge integer string stays exact",
			raw:  `[{"symbol":"USDT","balance":"123456789012345678901234567890","decimals":6}]`,
			rule: usdtRule(ethUSDT),
			want: "123456789012345678901234.56789",
		},
		{
			name: "thousands separators stripped",
			raw:  `[{"symbol":"USDT","balance":"1,500,000"}]`,
			rule: usdtRule(ethUSDT),
			want: "1.5",
		},
		{
			name: "alternate balance field name",
			raw:  `[{"symbol":"USDT","quantity":"7000000","decimals":6}]`,
			rule: usdtRule(ethUSDT),
			want: "7",
		},
		{
			name: "zero balance",
			raw:  `[{"symbol":"USDT","balance":"0"}]`,
			rule: usdtRule(ethUSDT),
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenBalance(decode(t, tt.raw), tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTokenBalanceDecimalsBounds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "decimals past int32 falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":3000000000}]`,
			want: "0.000015",
		},
		{
			name: "absurd float decimals falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":1e300}]`,
			want: "0.000015",
		},
		{
			name: "string decimals past int32 falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":"3000000000"}]`,
			want: "0.000015",
		},
		{
			name: "decimals just above the bound falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":256}]`,
			want: "0.000015",
		},
		{
			name: "decimals at the bound is honored",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":255}]`,
			want: "0." + strings.Repeat("0", 253) + "15",
		},
		{
			name: "fractional decimals falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":6.5}]`,
			want: "0.000015",
		},
		{
			name: "negative decimals falls back",
			raw:  `[{"symbol":"USDT","balance":"15","decimals":-6}]`,
			want: "0.000015",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenBalance(decode(t, tt.raw), usdtRule(ethUSDT))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.LessOrEqual(t, got.Exponent(), int32(0))
		})
	}
}

func TestTokenBalanceErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{
			name: "token absent from list",
			raw:  `{"data":[{"tokenAbbr":"TRX","tokenId":"_","balance":"991000000"}]}`,
			want: ErrTokenNotFound,
		},
		{
			name: "empty payload",
			raw:  `{}`,
			want: ErrTokenNotFound,
		},
		{
			name: "scalar payload",
			raw:  `"rate limited"`,
			want: ErrTokenNotFound,
		},
		{
			name: "array of scalars",
			raw:  `[1,2,3]`,
			want: ErrTokenNotFound,
		},
		{
			name: "matched record without balance field",
			raw:  `[{"symbol":"USDT","holders":12}]`,
			want: ErrBadBalance,
		},
		{
			name: "balance is an object",
			raw:  `[{"symbol":"USDT","balance":{"raw":"1500000"}}]`,
			want: ErrBadBalance,
		},
		{
			name: "balance is unparseable text",
			raw:  `[{"symbol":"USDT","balance":"n/a"}]`,
			want: ErrBadBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TokenBalance(decode(t, tt.raw), usdtRule(tronUSDT))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenBalanceNotFoundMessage(t *testing.T) {
	_, err := TokenBalance(decode(t, `{"data":[]}`), usdtRule(tronUSDT))
	require.Error(t, err)
	assert.Equal(t, "USDT token not found", err.Error())
}

func TestTokenBalanceNilPayload(t *testing.T) {
	_, err := TokenBalance(nil, usdtRule(tronUSDT))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "json number", value: float64(250000000), want: "250000000"},
		{name: "decimal string", value: "12.375", want: "12.375"},
		{name: "integer string", value: "1500000", want: "1500000"},
		{name: "scientific notation", value: "1.5e6", want: "1500000"},
		{name: "huge integer string", value: "123456789012345678901234567890", want: "123456789012345678901234567890"},
		{name: "digits among junk", value: "1 500 000 units", want: "1500000"},
		{name: "empty string", value: "", wantErr: true},
		{name: "no digits at all", value: "n/a", wantErr: true},
		{name: "boolean", value: true, wantErr: true},
		{name: "nil", value: nil, wantErr: true},
		{name: "object", value: map[string]any{"raw": "1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadBalance)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestField(t *testing.T) {
	rec := map[string]any{
		"value": "1500000",
		"token": map[string]any{
			"symbol":   "USDT",
			"decimals": "6",
		},
	}

	v, ok := Field(rec, []string{"balance", "amount", "value"})
	require.True(t, ok)
	assert.Equal(t, "1500000", v)

	v, ok = Field(rec, []string{"symbol"})
	require.True(t, ok)
	assert.Equal(t, "USDT", v)

	_, ok = Field(rec, []string{"holders"})
	assert.False(t, ok)
}

func TestRecordsDepthBounded(t *testing.T) {
	deep := map[string]any{"symbol": "USDT", "balance": "1500000"}
	var payload any = deep
	for range 20 {
		payload = map[string]any{"wrapped": payload}
	}

	_, err := TokenBalance(payload, usdtRule(tronUSDT))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
