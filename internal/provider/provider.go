// Package provider defines the external balance data sources and groups
// them into per-asset-class sets.
package provider

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Class identifies an asset class: a native coin or a specific token on a
// specific chain. Each class owns a disjoint provider set and a separate
// cache namespace.
type Class string

const (
	ClassBTC      Class = "btc"
	ClassUSDTTron Class = "usdt-trc20"
	ClassUSDTEth  Class = "usdt-erc20"
)

// Classes returns all supported asset classes in declaration order.
func Classes() []Class {
	return []Class{ClassBTC, ClassUSDTTron, ClassUSDTEth}
}

// ParseClass maps a request string onto a known asset class.
func ParseClass(s string) (Class, error) {
	switch Class(s) {
	case ClassBTC, ClassUSDTTron, ClassUSDTEth:
		return Class(s), nil
	default:
		return "", fmt.Errorf("unknown asset class %q", s)
	}
}

// Chain names the blockchain the class lives on.
func (c Class) Chain() string {
	switch c {
	case ClassBTC:
		return "bitcoin"
	case ClassUSDTTron:
		return "tron"
	case ClassUSDTEth:
		return "ethereum"
	default:
		return "unknown"
	}
}

// Symbol is the display symbol of the class's asset.
func (c Class) Symbol() string {
	if c == ClassBTC {
		return "BTC"
	}
	return "USDT"
}

// Provider is one external balance source. Implementations are immutable
// and safe for concurrent use.
type Provider interface {
	// Name identifies the provider in results, logs and metrics.
	Name() string

	// BalanceURL builds the request URL for an address.
	BalanceURL(address string) string

	// Normalize extracts the balance in display units from the decoded
	// response body.
	Normalize(payload any) (decimal.Decimal, error)
}

// Error records which provider a fetch or normalization failure came from.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
