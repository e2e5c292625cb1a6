package model

import "fmt"

// Supply-chain state codes as emitted by the contract.
const (
	StateManufactured          uint8 = 0
	StatePurchasedByThirdParty uint8 = 1
	StateShippedByManufacturer uint8 = 2
	StateReceivedByThirdParty  uint8 = 3
	StatePurchasedByCustomer   uint8 = 4
	StateShippedByThirdParty   uint8 = 5
	StateReceivedByDeliveryHub uint8 = 6
	StateShippedByDeliveryHub  uint8 = 7
	StateReceivedByCustomer    uint8 = 8
)

var stateNames = [...]string{
	"Manufactured",
	"PurchasedByThirdParty",
	"ShippedByManufacturer",
	"ReceivedByThirdParty",
	"PurchasedByCustomer",
	"ShippedByThirdParty",
	"ReceivedByDeliveryHub",
	"ShippedByDeliveryHub",
	"ReceivedByCustomer",
}

// StateName returns the human-readable name for a state code.
func StateName(state uint8) string {
	if int(state) < len(stateNames) {
		return stateNames[state]
	}
	return fmt.Sprintf("Unknown(%d)", state)
}
