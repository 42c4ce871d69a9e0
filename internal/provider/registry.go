package provider

import (
	"strings"

	"github.com/chainprobe/chainprobe/internal/normalize"
)

const (
	defaultBlockchainInfoURL = "https://blockchain.info"
	defaultBlockstreamURL    = "https://blockstream.info"
	defaultMempoolSpaceURL   = "https://mempool.space"
	defaultBlockCypherURL    = "https://api.blockcypher.com"
	defaultTronscanURL       = "https://apilist.tronscanapi.com"
	defaultTronGridURL       = "https://api.trongrid.io"
	defaultEthplorerURL      = "https://api.ethplorer.io"
	defaultBlockscoutURL     = "https://eth.blockscout.com"

	defaultEthplorerAPIKey = "freekey"
)

const (
	// DefaultTronUSDTContract is the canonical USDT TRC-20 contract.
	DefaultTronUSDTContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

	// DefaultEthUSDTContract is the canonical USDT ERC-20 contract.
	DefaultEthUSDTContract = "0xdac17f958d2ee523a2206206994597c13d831ec7"
)

// Set is the ordered provider group for one asset class.
type Set struct {
	Class     Class
	Providers []Provider

	// Shuffle requests a fresh random provider order per resolution.
	// Without it, providers are tried in declared priority order.
	Shuffle bool
}

// Options tunes registry construction. Zero fields use defaults.
type Options struct {
	// Endpoints overrides provider base URLs. Keys are dot-free endpoint
	// slugs (blockchaininfo, blockstream, mempool, blockcypher, tronscan,
	// trongrid, tronscan-account, ethplorer, blockscout) so they survive
	// config-file key handling.
	Endpoints map[string]string

	TronUSDTContract string
	EthUSDTContract  string
	EthplorerAPIKey  string
}

// Registry holds the statically configured provider sets.
type Registry struct {
	sets  map[Class]Set
	order []Class
}

func NewRegistry(opts Options) *Registry {
	base := func(name, fallback string) string {
		if u, ok := opts.Endpoints[name]; ok && u != "" {
			return strings.TrimRight(u, "/")
		}
		return fallback
	}

	tronContract := opts.TronUSDTContract
	if tronContract == "" {
		tronContract = DefaultTronUSDTContract
	}
	ethContract := opts.EthUSDTContract
	if ethContract == "" {
		ethContract = DefaultEthUSDTContract
	}
	apiKey := opts.EthplorerAPIKey
	if apiKey == "" {
		apiKey = defaultEthplorerAPIKey
	}

	tronRule := normalize.TokenRule{Symbol: "USDT", ContractIDs: []string{tronContract}, Decimals: 6}
	ethRule := normalize.TokenRule{Symbol: "USDT", ContractIDs: []string{ethContract}, Decimals: 6}

	sets := []Set{
		{
			Class:   ClassBTC,
			Shuffle: true,
			Providers: []Provider{
				blockchainInfo{baseURL: base("blockchaininfo", defaultBlockchainInfoURL)},
				esplora{name: "blockstream.info", baseURL: base("blockstream", defaultBlockstreamURL)},
				esplora{name: "mempool.space", baseURL: base("mempool", defaultMempoolSpaceURL)},
				blockCypher{baseURL: base("blockcypher", defaultBlockCypherURL)},
			},
		},
		{
			Class: ClassUSDTTron,
			Providers: []Provider{
				tronscanTokens{baseURL: base("tronscan", defaultTronscanURL), rule: tronRule},
				tronGrid{baseURL: base("trongrid", defaultTronGridURL), rule: tronRule},
				tronscanAccount{baseURL: base("tronscan-account", defaultTronscanURL), rule: tronRule},
			},
		},
		{
			Class: ClassUSDTEth,
			Providers: []Provider{
				ethplorer{baseURL: base("ethplorer", defaultEthplorerURL), apiKey: apiKey, rule: ethRule},
				blockscout{baseURL: base("blockscout", defaultBlockscoutURL), rule: ethRule},
			},
		},
	}

	r := &Registry{sets: make(map[Class]Set, len(sets))}
	for _, s := range sets {
		r.sets[s.Class] = s
		r.order = append(r.order, s.Class)
	}
	return r
}

// Lookup returns the provider set for a class.
func (r *Registry) Lookup(class Class) (Set, bool) {
	s, ok := r.sets[class]
	return s, ok
}

// All returns every set in declaration order.
func (r *Registry) All() []Set {
	out := make([]Set, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.sets[c])
	}
	return out
}
