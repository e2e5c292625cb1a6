package model

import "time"

// ArchivedRecord is the durable snapshot of a product that completed its
// supply-chain journey, keyed by the on-chain uid.
type ArchivedRecord struct {
	UID uint64 `json:"uid"`
	SKU uint64 `json:"sku"`

	ProductName     string `json:"product_name"`
	ProductCode     uint64 `json:"product_code"`
	ProductPrice    uint64 `json:"product_price"`
	ProductCategory string `json:"product_category"`

	Manufacturer Manufacturer `json:"manufacturer"`
	ThirdParty   Waypoint     `json:"third_party"`
	DeliveryHub  Waypoint     `json:"delivery_hub"`
	Customer     Customer     `json:"customer"`

	History []TransitionEvent `json:"history"`

	DaysInSupplyChain int `json:"days_in_supply_chain"`

	CompletedAt     time.Time `json:"completed_at"`
	ContractAddress string    `json:"contract_address"`
	FinalTxHash     string    `json:"final_tx_hash"`
	FinalBlockNum   uint64    `json:"final_block_number"`
	ArchivedAt      time.Time `json:"archived_at"`
	ArchivedBy      string    `json:"archived_by"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Manufacturer describes where the product originated.
type Manufacturer struct {
	Address        string    `json:"address"`
	Name           string    `json:"name"`
	Details        string    `json:"details,omitempty"`
	Longitude      string    `json:"longitude,omitempty"`
	Latitude       string    `json:"latitude,omitempty"`
	ManufacturedAt time.Time `json:"manufactured_at"`
}

// Waypoint is an intermediate custodian (third party or delivery hub).
// Fields stay empty when the journey bypassed that role.
type Waypoint struct {
	Address   string `json:"address,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	Latitude  string `json:"latitude,omitempty"`
}

// Customer is the final recipient.
type Customer struct {
	Address string `json:"address"`
}

// TransitionEvent is one recorded state change, in ledger emission order.
type TransitionEvent struct {
	State     uint8     `json:"state"`
	StateName string    `json:"state_name"`
	Timestamp time.Time `json:"timestamp"`
	BlockNum  uint64    `json:"block_number,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
}
