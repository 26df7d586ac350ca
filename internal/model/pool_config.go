package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PoolConfig is the static description of a watched pool. Tokens, Decimals
// and PriceIDs are parallel lists: index i refers to the same token in all three.
type PoolConfig struct {
	Name         string   `json:"name" yaml:"name"`
	Address      string   `json:"address" yaml:"address"`
	LocalAddress string   `json:"local_address" yaml:"local_address"`
	Tokens       []string `json:"tokens" yaml:"tokens"`
	Decimals     []int    `json:"decimals" yaml:"decimals"`
	PriceIDs     []string `json:"price_ids" yaml:"price_ids"`
	IconURL      string   `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
}

// AddressFor returns the contract address for the selected environment.
func (p PoolConfig) AddressFor(production bool) string {
	if production {
		return p.Address
	}
	return p.LocalAddress
}

// Token returns the metadata of the token at index.
func (p PoolConfig) Token(index int) (TokenMeta, bool) {
	if index < 0 || index >= len(p.Tokens) || index >= len(p.Decimals) || index >= len(p.PriceIDs) {
		return TokenMeta{}, false
	}
	return TokenMeta{
		Symbol:   p.Tokens[index],
		Decimals: p.Decimals[index],
		PriceID:  p.PriceIDs[index],
	}, true
}

// Validate checks the parallel list invariant and the address format.
func (p PoolConfig) Validate(production bool) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pool name is required")
	}
	if len(p.Tokens) == 0 {
		return fmt.Errorf("pool %s: token list is empty", p.Name)
	}
	if len(p.Tokens) != len(p.Decimals) || len(p.Tokens) != len(p.PriceIDs) {
		return fmt.Errorf("pool %s: tokens(%d), decimals(%d) and price ids(%d) must have equal length",
			p.Name, len(p.Tokens), len(p.Decimals), len(p.PriceIDs))
	}
	for i, d := range p.Decimals {
		if d < 0 {
			return fmt.Errorf("pool %s: negative decimals for %s", p.Name, p.Tokens[i])
		}
	}
	for i, id := range p.PriceIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("pool %s: missing price id for %s", p.Name, p.Tokens[i])
		}
	}
	addr := p.AddressFor(production)
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("pool %s: invalid address: %q", p.Name, addr)
	}
	return nil
}
