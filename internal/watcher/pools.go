package watcher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"poolNotifier/internal/model"
)

// poolIndex maps watched contract addresses to their pool configuration.
type poolIndex map[common.Address]model.PoolConfig

func newPoolIndex(pools []model.PoolConfig, production bool) (poolIndex, error) {
	index := make(poolIndex, len(pools))
	for _, pool := range pools {
		address := pool.AddressFor(production)
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("pool %s: invalid address: %q", pool.Name, address)
		}
		key := common.HexToAddress(address)
		if existing, ok := index[key]; ok {
			return nil, fmt.Errorf("pools %s and %s share address %s", existing.Name, pool.Name, key.Hex())
		}
		index[key] = pool
	}
	return index, nil
}

func (p poolIndex) addresses() []common.Address {
	out := make([]common.Address, 0, len(p))
	for address := range p {
		out = append(out, address)
	}
	return out
}
