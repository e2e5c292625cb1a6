package contract

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// The fetchProductPartN views return fixed-order tuples. These index
// constants are the single source of truth for the position-to-field
// mapping; nothing outside this file indexes into the raw values.
const (
	part1UID                   = 0
	part1SKU                   = 1
	part1Owner                 = 2
	part1ManufacturerAddress   = 3
	part1ManufacturerName      = 4
	part1ManufacturerDetails   = 5
	part1ManufacturerLongitude = 6
	part1ManufacturerLatitude  = 7

	part2ManufacturedDate    = 0
	part2ProductName         = 1
	part2ProductCode         = 2
	part2ProductPrice        = 3
	part2ProductCategory     = 4
	part2State               = 5
	part2ThirdPartyAddress   = 6
	part2ThirdPartyLongitude = 7

	part3ThirdPartyLatitude   = 0
	part3DeliveryHubAddress   = 1
	part3DeliveryHubLongitude = 2
	part3DeliveryHubLatitude  = 3
	part3CustomerAddress      = 4
	part3TransactionHash      = 5
)

const (
	part1Len = 8
	part2Len = 8
	part3Len = 6
)

// Part1 carries identity and manufacturer fields.
type Part1 struct {
	UID                   uint64
	SKU                   uint64
	Owner                 string
	ManufacturerAddress   string
	ManufacturerName      string
	ManufacturerDetails   string
	ManufacturerLongitude string
	ManufacturerLatitude  string
}

// Part2 carries product descriptors, state, and the third-party custodian.
type Part2 struct {
	ManufacturedAt      time.Time
	ProductName         string
	ProductCode         uint64
	ProductPrice        uint64
	ProductCategory     string
	State               uint8
	ThirdPartyAddress   string
	ThirdPartyLongitude string
}

// Part3 carries the remaining custodians, the customer, and the per-entry
// transaction hash (meaningful in the history view).
type Part3 struct {
	ThirdPartyLatitude   string
	DeliveryHubAddress   string
	DeliveryHubLongitude string
	DeliveryHubLatitude  string
	CustomerAddress      string
	TransactionHash      string
}

// DecodePart1 maps a fetchProductPart1 tuple to named fields.
func DecodePart1(values []interface{}) (Part1, error) {
	if len(values) != part1Len {
		return Part1{}, fmt.Errorf("part1: expected %d values, got %d", part1Len, len(values))
	}

	uid, err := asUint64(values[part1UID])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 uid: %w", err)
	}
	sku, err := asUint64(values[part1SKU])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 sku: %w", err)
	}
	owner, err := asAddressHex(values[part1Owner])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 owner: %w", err)
	}
	manufacturer, err := asAddressHex(values[part1ManufacturerAddress])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 manufacturer: %w", err)
	}
	name, err := asString(values[part1ManufacturerName])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 manufacturer name: %w", err)
	}
	details, err := asString(values[part1ManufacturerDetails])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 manufacturer details: %w", err)
	}
	longitude, err := asString(values[part1ManufacturerLongitude])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 manufacturer longitude: %w", err)
	}
	latitude, err := asString(values[part1ManufacturerLatitude])
	if err != nil {
		return Part1{}, fmt.Errorf("part1 manufacturer latitude: %w", err)
	}

	return Part1{
		UID:                   uid,
		SKU:                   sku,
		Owner:                 owner,
		ManufacturerAddress:   manufacturer,
		ManufacturerName:      name,
		ManufacturerDetails:   details,
		ManufacturerLongitude: longitude,
		ManufacturerLatitude:  latitude,
	}, nil
}

// DecodePart2 maps a fetchProductPart2 tuple to named fields.
func DecodePart2(values []interface{}) (Part2, error) {
	if len(values) != part2Len {
		return Part2{}, fmt.Errorf("part2: expected %d values, got %d", part2Len, len(values))
	}

	manufactured, err := asUnixTime(values[part2ManufacturedDate])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 manufactured date: %w", err)
	}
	name, err := asString(values[part2ProductName])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 product name: %w", err)
	}
	code, err := asUint64(values[part2ProductCode])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 product code: %w", err)
	}
	price, err := asUint64(values[part2ProductPrice])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 product price: %w", err)
	}
	category, err := asString(values[part2ProductCategory])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 product category: %w", err)
	}
	state, err := asState(values[part2State])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 state: %w", err)
	}
	thirdParty, err := asAddressHex(values[part2ThirdPartyAddress])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 third party: %w", err)
	}
	longitude, err := asString(values[part2ThirdPartyLongitude])
	if err != nil {
		return Part2{}, fmt.Errorf("part2 third party longitude: %w", err)
	}

	return Part2{
		ManufacturedAt:      manufactured,
		ProductName:         name,
		ProductCode:         code,
		ProductPrice:        price,
		ProductCategory:     category,
		State:               state,
		ThirdPartyAddress:   thirdParty,
		ThirdPartyLongitude: longitude,
	}, nil
}

// DecodePart3 maps a fetchProductPart3 tuple to named fields.
func DecodePart3(values []interface{}) (Part3, error) {
	if len(values) != part3Len {
		return Part3{}, fmt.Errorf("part3: expected %d values, got %d", part3Len, len(values))
	}

	latitude, err := asString(values[part3ThirdPartyLatitude])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 third party latitude: %w", err)
	}
	hub, err := asAddressHex(values[part3DeliveryHubAddress])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 delivery hub: %w", err)
	}
	hubLongitude, err := asString(values[part3DeliveryHubLongitude])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 delivery hub longitude: %w", err)
	}
	hubLatitude, err := asString(values[part3DeliveryHubLatitude])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 delivery hub latitude: %w", err)
	}
	customer, err := asAddressHex(values[part3CustomerAddress])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 customer: %w", err)
	}
	txHash, err := asString(values[part3TransactionHash])
	if err != nil {
		return Part3{}, fmt.Errorf("part3 transaction hash: %w", err)
	}

	return Part3{
		ThirdPartyLatitude:   latitude,
		DeliveryHubAddress:   hub,
		DeliveryHubLongitude: hubLongitude,
		DeliveryHubLatitude:  hubLatitude,
		CustomerAddress:      customer,
		TransactionHash:      txHash,
	}, nil
}

func asUint64(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case *big.Int:
		if !v.IsUint64() {
			return 0, fmt.Errorf("value does not fit in uint64: %s", v.String())
		}
		return v.Uint64(), nil
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("unsupported uint type %T", value)
	}
}

func asState(value interface{}) (uint8, error) {
	raw, err := asUint64(value)
	if err != nil {
		return 0, err
	}
	if raw > 255 {
		return 0, fmt.Errorf("state code out of range: %d", raw)
	}
	return uint8(raw), nil
}

func asUnixTime(value interface{}) (time.Time, error) {
	secs, err := asUint64(value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

func asString(value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", value)
	}
	return s, nil
}

func asAddressHex(value interface{}) (string, error) {
	switch v := value.(type) {
	case common.Address:
		return v.Hex(), nil
	case *common.Address:
		return v.Hex(), nil
	default:
		return "", fmt.Errorf("unsupported address type %T", value)
	}
}
