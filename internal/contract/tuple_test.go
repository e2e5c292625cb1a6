package contract

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ownerAddr        = common.HexToAddress("0x1000000000000000000000000000000000000001")
	manufacturerAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
	thirdPartyAddr   = common.HexToAddress("0x3000000000000000000000000000000000000003")
	deliveryHubAddr  = common.HexToAddress("0x4000000000000000000000000000000000000004")
	customerAddr     = common.HexToAddress("0x5000000000000000000000000000000000000005")
)

func part1Values() []interface{} {
	return []interface{}{
		big.NewInt(42),
		big.NewInt(1001),
		ownerAddr,
		manufacturerAddr,
		"Acme Manufacturing",
		"Plant 3, Line 2",
		"13.4050",
		"52.5200",
	}
}

func part2Values() []interface{} {
	return []interface{}{
		big.NewInt(1700000000),
		"Solar Panel",
		big.NewInt(77),
		big.NewInt(250),
		"Energy",
		big.NewInt(8),
		thirdPartyAddr,
		"2.3522",
	}
}

func part3Values() []interface{} {
	return []interface{}{
		"48.8566",
		deliveryHubAddr,
		"-0.1278",
		"51.5074",
		customerAddr,
		"0xfinaltx",
	}
}

func TestDecodePart1FieldMapping(t *testing.T) {
	got, err := DecodePart1(part1Values())
	if err != nil {
		t.Fatalf("decode part1: %v", err)
	}

	checks := []struct {
		field string
		got   interface{}
		want  interface{}
	}{
		{"uid", got.UID, uint64(42)},
		{"sku", got.SKU, uint64(1001)},
		{"owner", got.Owner, ownerAddr.Hex()},
		{"manufacturer address", got.ManufacturerAddress, manufacturerAddr.Hex()},
		{"manufacturer name", got.ManufacturerName, "Acme Manufacturing"},
		{"manufacturer details", got.ManufacturerDetails, "Plant 3, Line 2"},
		{"manufacturer longitude", got.ManufacturerLongitude, "13.4050"},
		{"manufacturer latitude", got.ManufacturerLatitude, "52.5200"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("part1 %s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestDecodePart2FieldMapping(t *testing.T) {
	got, err := DecodePart2(part2Values())
	if err != nil {
		t.Fatalf("decode part2: %v", err)
	}

	wantTime := time.Unix(1700000000, 0).UTC()
	checks := []struct {
		field string
		got   interface{}
		want  interface{}
	}{
		{"manufactured date", got.ManufacturedAt, wantTime},
		{"product name", got.ProductName, "Solar Panel"},
		{"product code", got.ProductCode, uint64(77)},
		{"product price", got.ProductPrice, uint64(250)},
		{"product category", got.ProductCategory, "Energy"},
		{"state", got.State, uint8(8)},
		{"third party address", got.ThirdPartyAddress, thirdPartyAddr.Hex()},
		{"third party longitude", got.ThirdPartyLongitude, "2.3522"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("part2 %s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestDecodePart3FieldMapping(t *testing.T) {
	got, err := DecodePart3(part3Values())
	if err != nil {
		t.Fatalf("decode part3: %v", err)
	}

	checks := []struct {
		field string
		got   interface{}
		want  interface{}
	}{
		{"third party latitude", got.ThirdPartyLatitude, "48.8566"},
		{"delivery hub address", got.DeliveryHubAddress, deliveryHubAddr.Hex()},
		{"delivery hub longitude", got.DeliveryHubLongitude, "-0.1278"},
		{"delivery hub latitude", got.DeliveryHubLatitude, "51.5074"},
		{"customer address", got.CustomerAddress, customerAddr.Hex()},
		{"transaction hash", got.TransactionHash, "0xfinaltx"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("part3 %s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestDecodeRejectsWrongArity(t *testing.T) {
	if _, err := DecodePart1(part1Values()[:7]); err == nil {
		t.Fatalf("expected error for short part1 tuple")
	}
	if _, err := DecodePart2(append(part2Values(), "extra")); err == nil {
		t.Fatalf("expected error for long part2 tuple")
	}
	if _, err := DecodePart3(nil); err == nil {
		t.Fatalf("expected error for nil part3 tuple")
	}
}

func TestDecodeRejectsWrongTypes(t *testing.T) {
	values := part2Values()
	values[part2State] = "not-a-number"
	if _, err := DecodePart2(values); err == nil {
		t.Fatalf("expected error for mistyped state")
	}

	values = part1Values()
	values[part1ManufacturerAddress] = big.NewInt(1)
	if _, err := DecodePart1(values); err == nil {
		t.Fatalf("expected error for mistyped address")
	}
}
