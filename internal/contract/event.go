package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const deliveredEventName = "ReceivedByCustomer"

// DeliveredTopic returns the topic0 hash of the terminal-state event.
func DeliveredTopic() (common.Hash, error) {
	parsed, err := SupplyChainABI()
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse supply chain abi: %w", err)
	}
	event, ok := parsed.Events[deliveredEventName]
	if !ok {
		return common.Hash{}, fmt.Errorf("event %s not in abi", deliveredEventName)
	}
	return event.ID, nil
}

// ParseDeliveredEvent extracts the product uid from a ReceivedByCustomer log.
func ParseDeliveredEvent(lg types.Log) (uint64, error) {
	parsed, err := SupplyChainABI()
	if err != nil {
		return 0, fmt.Errorf("parse supply chain abi: %w", err)
	}

	values, err := parsed.Unpack(deliveredEventName, lg.Data)
	if err != nil {
		return 0, fmt.Errorf("unpack %s: %w", deliveredEventName, err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("%s: expected 1 value, got %d", deliveredEventName, len(values))
	}
	return asUint64(values[0])
}
