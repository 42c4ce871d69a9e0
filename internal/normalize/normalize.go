// Package normalize extracts canonical decimal balances from untrusted
// upstream JSON payloads.
//
// Public blockchain-data APIs do not share a schema and do not keep the one
// they document: the token list may sit under different container keys, the
// symbol/contract/balance/decimals fields go by several names, and numeric
// values arrive as numbers or strings (sometimes larger than float64 can
// hold). Everything here therefore works on the generic decoded form
// (map[string]any / []any) and probes ordered candidate key lists instead of
// unmarshalling into fixed structs.
package normalize

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrTokenNotFound means no record in the payload matched the rule's
	// symbol or contract id.
	ErrTokenNotFound = errors.New("token not found")

	// ErrBadBalance means a record matched but no numeric balance could be
	// derived from it.
	ErrBadBalance = errors.New("invalid balance format")
)

// Candidate field names, tried in order. Derived from the response shapes of
// the configured providers plus the aliases seen on their API versions.
var (
	symbolKeys   = []string{"symbol", "tokenAbbr", "token_abbr", "tokenSymbol", "token_symbol", "coin", "currency"}
	contractKeys = []string{"contract", "contractAddress", "contract_address", "tokenId", "token_id", "tokenAddress", "token_address", "address", "hash"}
	balanceKeys  = []string{"rawBalance", "raw_balance", "balance", "amount", "value", "quantity", "tokenQuantity"}
	decimalsKeys = []string{"decimals", "tokenDecimal", "token_decimals", "tokenDecimals", "divisor"}

	// Nested metadata containers (e.g. ethplorer's tokenInfo, blockscout's
	// token) probed after the record's own fields.
	metaKeys = []string{"tokenInfo", "token_info", "token"}
)

const (
	// Fallback scaling exponent when a rule does not set one and the record
	// carries no usable decimals field.
	defaultDecimals = 6

	// Highest payload-supplied scaling exponent honored. Real token
	// exponents are tiny; anything larger is junk and must never reach the
	// int32 shift in TokenBalance.
	maxDecimals = 255

	// Containers are walked at most this deep when collecting records.
	maxDepth = 6
)

// TokenRule identifies one token within an arbitrary payload.
type TokenRule struct {
	// Symbol is compared case-insensitively against the record's symbol
	// field candidates.
	Symbol string

	// ContractIDs are the canonical token identifiers on this chain. A
	// record matches when any contract field candidate equals one of them
	// (case-insensitive), or when the record maps the id itself directly to
	// a balance value.
	ContractIDs []string

	// Decimals is the scaling exponent assumed when the record has no
	// usable decimals field. Zero means 6.
	Decimals int
}

// TokenBalance locates the rule's token among the payload's records and
// returns its balance in display units (raw amount divided by 10^decimals).
//
// It never panics on hostile shapes; all failures come back as errors
// wrapping ErrTokenNotFound or ErrBadBalance.
func TokenBalance(payload any, rule TokenRule) (decimal.Decimal, error) {
	rec, direct, ok := findToken(Records(payload), rule)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s %w", rule.Symbol, ErrTokenNotFound)
	}

	raw := direct
	if raw == nil {
		v, found := Field(rec, balanceKeys)
		if !found {
			return decimal.Zero, fmt.Errorf("%s: %w", rule.Symbol, ErrBadBalance)
		}
		raw = v
	}

	amount, err := Amount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", rule.Symbol, err)
	}

	return amount.Shift(int32(-ruleDecimals(rec, rule))), nil
}

// Records walks the payload and collects every JSON object encountered, in a
// deterministic order. The top-level value, container objects and list
// elements all become candidates; matching is strict enough that extra
// candidates are harmless.
func Records(payload any) []map[string]any {
	var out []map[string]any
	collect(payload, 0, &out)
	return out
}

func collect(v any, depth int, out *[]map[string]any) {
	if depth > maxDepth {
		return
	}
	switch x := v.(type) {
	case map[string]any:
		*out = append(*out, x)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collect(x[k], depth+1, out)
		}
	case []any:
		for _, e := range x {
			collect(e, depth+1, out)
		}
	}
}

// findToken returns the first record matching the rule. When the record maps
// a canonical contract id directly to its balance (trongrid's trc20 shape),
// the balance value is returned alongside so extraction can skip the field
// probe.
func findToken(records []map[string]any, rule TokenRule) (map[string]any, any, bool) {
	for _, rec := range records {
		if v, ok := contractMapped(rec, rule); ok {
			return rec, v, true
		}
		if matchesSymbol(rec, rule.Symbol) || matchesContract(rec, rule.ContractIDs) {
			return rec, nil, true
		}
	}
	return nil, nil, false
}

func contractMapped(rec map[string]any, rule TokenRule) (any, bool) {
	for k, v := range rec {
		for _, id := range rule.ContractIDs {
			if strings.EqualFold(k, id) {
				return v, true
			}
		}
	}
	return nil, false
}

func matchesSymbol(rec map[string]any, symbol string) bool {
	if symbol == "" {
		return false
	}
	v, ok := Field(rec, symbolKeys)
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), symbol)
}

func matchesContract(rec map[string]any, ids []string) bool {
	v, ok := Field(rec, contractKeys)
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	for _, id := range ids {
		if strings.EqualFold(s, id) {
			return true
		}
	}
	return false
}

// Field probes the record for the first present candidate key, then retries
// inside known nested metadata objects.
func Field(rec map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v, true
		}
	}
	for _, mk := range metaKeys {
		if nested, ok := rec[mk].(map[string]any); ok {
			for _, k := range keys {
				if v, ok := nested[k]; ok && v != nil {
					return v, true
				}
			}
		}
	}
	return nil, false
}

// Amount converts a raw balance value to a decimal. Strings are parsed
// directly (arbitrary precision, so huge integer strings stay exact); if
// that fails, non-digit characters are stripped and the remainder parsed as
// a big integer.
func Amount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, ErrBadBalance
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d, nil
		}
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, s)
		if digits == "" {
			return decimal.Zero, ErrBadBalance
		}
		n, ok := new(big.Int).SetString(digits, 10)
		if !ok {
			return decimal.Zero, ErrBadBalance
		}
		return decimal.NewFromBigInt(n, 0), nil
	case bool, nil:
		return decimal.Zero, ErrBadBalance
	default:
		return decimal.Zero, ErrBadBalance
	}
}

// ruleDecimals reads the record's scaling exponent, falling back to the
// rule's default and finally to 6. Payload values outside 0..maxDecimals are
// treated as absent.
func ruleDecimals(rec map[string]any, rule TokenRule) int {
	fallback := rule.Decimals
	if fallback == 0 {
		fallback = defaultDecimals
	}

	v, ok := Field(rec, decimalsKeys)
	if !ok {
		return fallback
	}
	switch x := v.(type) {
	case float64:
		// Bounds first: converting an out-of-range float to int is
		// implementation-defined.
		if x < 0 || x > maxDecimals || x != float64(int(x)) {
			return fallback
		}
		return int(x)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 32)
		if err != nil || n < 0 || n > maxDecimals {
			return fallback
		}
		return int(n)
	default:
		return fallback
	}
}
