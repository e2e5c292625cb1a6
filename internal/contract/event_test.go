package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
)

func TestParseDeliveredEvent(t *testing.T) {
	parsed, err := SupplyChainABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := parsed.Events[deliveredEventName].Inputs.NonIndexed().Pack(big.NewInt(42))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}

	topic, err := DeliveredTopic()
	if err != nil {
		t.Fatalf("topic: %v", err)
	}

	uid, err := ParseDeliveredEvent(types.Log{Topics: nil, Data: data})
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}

	if topic != parsed.Events[deliveredEventName].ID {
		t.Fatalf("topic mismatch")
	}
}

func TestParseDeliveredEventBadData(t *testing.T) {
	if _, err := ParseDeliveredEvent(types.Log{Data: []byte{0x01}}); err == nil {
		t.Fatalf("expected error for malformed event data")
	}
}
