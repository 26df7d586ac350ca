package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const stableSwapABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokensSold", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokensBought", "type": "uint256"},
      {"indexed": false, "internalType": "uint128", "name": "soldId", "type": "uint128"},
      {"indexed": false, "internalType": "uint128", "name": "boughtId", "type": "uint128"}
    ],
    "name": "TokenSwap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "fees", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "invariant", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "AddLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "RemoveLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "boughtId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokensBought", "type": "uint256"}
    ],
    "name": "RemoveLiquidityOne",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "fees", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "invariant", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "RemoveLiquidityImbalance",
    "type": "event"
  },
  {
    "inputs": [{"internalType": "uint8", "name": "index", "type": "uint8"}],
    "name": "getToken",
    "outputs": [{"internalType": "contract IERC20", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	stableSwapABI     abi.ABI
	stableSwapABIOnce sync.Once
	stableSwapABIErr  error
)

// StableSwapABI returns the parsed StableSwap pool ABI.
func StableSwapABI() (abi.ABI, error) {
	stableSwapABIOnce.Do(func() {
		stableSwapABI, stableSwapABIErr = abi.JSON(strings.NewReader(stableSwapABIJSON))
	})
	return stableSwapABI, stableSwapABIErr
}
