package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const supplyChainABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "uid", "type": "uint256"}
    ],
    "name": "ReceivedByCustomer",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"},
      {"internalType": "string", "name": "kind", "type": "string"},
      {"internalType": "uint256", "name": "index", "type": "uint256"}
    ],
    "name": "fetchProductPart1",
    "outputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"},
      {"internalType": "uint256", "name": "sku", "type": "uint256"},
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "manufacturer", "type": "address"},
      {"internalType": "string", "name": "manufacturerName", "type": "string"},
      {"internalType": "string", "name": "manufacturerDetails", "type": "string"},
      {"internalType": "string", "name": "manufacturerLongitude", "type": "string"},
      {"internalType": "string", "name": "manufacturerLatitude", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"},
      {"internalType": "string", "name": "kind", "type": "string"},
      {"internalType": "uint256", "name": "index", "type": "uint256"}
    ],
    "name": "fetchProductPart2",
    "outputs": [
      {"internalType": "uint256", "name": "manufacturedDate", "type": "uint256"},
      {"internalType": "string", "name": "productName", "type": "string"},
      {"internalType": "uint256", "name": "productCode", "type": "uint256"},
      {"internalType": "uint256", "name": "productPrice", "type": "uint256"},
      {"internalType": "string", "name": "productCategory", "type": "string"},
      {"internalType": "uint256", "name": "state", "type": "uint256"},
      {"internalType": "address", "name": "thirdParty", "type": "address"},
      {"internalType": "string", "name": "thirdPartyLongitude", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"},
      {"internalType": "string", "name": "kind", "type": "string"},
      {"internalType": "uint256", "name": "index", "type": "uint256"}
    ],
    "name": "fetchProductPart3",
    "outputs": [
      {"internalType": "string", "name": "thirdPartyLatitude", "type": "string"},
      {"internalType": "address", "name": "deliveryHub", "type": "address"},
      {"internalType": "string", "name": "deliveryHubLongitude", "type": "string"},
      {"internalType": "string", "name": "deliveryHubLatitude", "type": "string"},
      {"internalType": "address", "name": "customer", "type": "address"},
      {"internalType": "string", "name": "transactionHash", "type": "string"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"}
    ],
    "name": "fetchProductHistoryLength",
    "outputs": [
      {"internalType": "uint256", "name": "", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "uid", "type": "uint256"}
    ],
    "name": "fetchProductState",
    "outputs": [
      {"internalType": "uint256", "name": "", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	supplyChainABI     abi.ABI
	supplyChainABIOnce sync.Once
	supplyChainABIErr  error
)

// SupplyChainABI returns the parsed SupplyChain contract ABI.
func SupplyChainABI() (abi.ABI, error) {
	supplyChainABIOnce.Do(func() {
		supplyChainABI, supplyChainABIErr = abi.JSON(strings.NewReader(supplyChainABIJSON))
	})
	return supplyChainABI, supplyChainABIErr
}
