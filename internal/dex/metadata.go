package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolNotifier/internal/model"
)

// ContractCaller performs read-only contract calls. *chain.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenInfo is what a token contract reports about itself.
type TokenInfo struct {
	Address  string
	Symbol   string
	Decimals int
}

// TokenCheck compares one configured token against its on-chain contract.
type TokenCheck struct {
	Index              int
	ConfiguredSymbol   string
	ConfiguredDecimals int
	OnChain            TokenInfo
}

// DecimalsMatch reports whether the configured decimals equal the on-chain value.
func (c TokenCheck) DecimalsMatch() bool {
	return c.ConfiguredDecimals == c.OnChain.Decimals
}

// TokenInfoCache caches token info by address.
type TokenInfoCache struct {
	mu   sync.RWMutex
	data map[common.Address]TokenInfo
}

func NewTokenInfoCache() *TokenInfoCache {
	return &TokenInfoCache{data: make(map[common.Address]TokenInfo)}
}

func (c *TokenInfoCache) Get(address common.Address) (TokenInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

func (c *TokenInfoCache) Set(address common.Address, info TokenInfo) {
	c.mu.Lock()
	c.data[address] = info
	c.mu.Unlock()
}

// VerifyPool resolves every configured token through getToken(i) and reads its
// ERC20 metadata. Tokens shared between pools are fetched once through cache.
func VerifyPool(ctx context.Context, caller ContractCaller, pool model.PoolConfig, production bool, cache *TokenInfoCache, logger *zap.Logger) ([]TokenCheck, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	address := pool.AddressFor(production)
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("pool %s: invalid address: %q", pool.Name, address)
	}
	poolAddress := common.HexToAddress(address)

	checks := make([]TokenCheck, 0, len(pool.Tokens))
	for i, symbol := range pool.Tokens {
		if i > 255 {
			return nil, fmt.Errorf("pool %s: too many tokens", pool.Name)
		}
		token, err := FetchPoolToken(ctx, caller, poolAddress, uint8(i))
		if err != nil {
			return nil, fmt.Errorf("pool %s token %d: %w", pool.Name, i, err)
		}

		info, ok := TokenInfo{}, false
		if cache != nil {
			info, ok = cache.Get(token)
		}
		if !ok {
			info, err = FetchTokenInfo(ctx, caller, token, logger)
			if err != nil {
				return nil, fmt.Errorf("pool %s token %d: %w", pool.Name, i, err)
			}
			if cache != nil {
				cache.Set(token, info)
			}
		}

		check := TokenCheck{Index: i, ConfiguredSymbol: symbol, OnChain: info}
		if i < len(pool.Decimals) {
			check.ConfiguredDecimals = pool.Decimals[i]
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// FetchPoolToken calls getToken(index) on a StableSwap pool.
func FetchPoolToken(ctx context.Context, caller ContractCaller, pool common.Address, index uint8) (common.Address, error) {
	poolABI, err := StableSwapABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, caller, pool, poolABI, "getToken", index)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// FetchTokenInfo loads token metadata via ERC20 calls. Symbols stored as
// bytes32 are handled as a fallback.
func FetchTokenInfo(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (TokenInfo, error) {
	info := TokenInfo{Address: token.Hex()}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return info, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return info, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, "decimals")
	if err != nil {
		return info, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return info, err
	}
	info.Decimals = int(decimals)

	if values, err := callMethod(ctx, caller, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			info.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return info, nil
}

func callMethod(ctx context.Context, caller ContractCaller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return strings.TrimSpace(string(bytes.TrimRight(v[:], "\x00"))), true
	case []byte:
		return strings.TrimSpace(string(bytes.TrimRight(v, "\x00"))), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
