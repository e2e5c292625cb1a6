package archive

import (
	"context"
	"fmt"
	"time"

	"supplyArchive/internal/contract"
	"supplyArchive/internal/model"
)

// Assembler reconstructs a complete product and its transition history from
// the paginated contract views. It performs reads only; persistence is the
// pipeline's concern.
type Assembler struct {
	ledger contract.Ledger
	now    func() time.Time
}

// NewAssembler builds an Assembler over an explicit ledger handle.
func NewAssembler(ledger contract.Ledger) *Assembler {
	return &Assembler{ledger: ledger, now: time.Now}
}

// Assemble fetches and normalizes one product. History entries are read
// sequentially by ascending index so the result preserves ledger emission
// order. Any failed read aborts the whole assembly with a FetchError.
func (a *Assembler) Assemble(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	part1, part2, part3, err := a.readParts(ctx, uid, contract.ViewProduct, 0)
	if err != nil {
		return nil, &FetchError{UID: uid, Err: err}
	}

	length, err := a.ledger.HistoryLength(ctx, uid)
	if err != nil {
		return nil, &FetchError{UID: uid, Err: fmt.Errorf("history length: %w", err)}
	}

	history := make([]model.TransitionEvent, 0, length)
	for i := uint64(0); i < length; i++ {
		_, hist2, hist3, err := a.readParts(ctx, uid, contract.ViewHistory, i)
		if err != nil {
			return nil, &FetchError{UID: uid, Err: fmt.Errorf("history entry %d: %w", i, err)}
		}
		history = append(history, model.TransitionEvent{
			State:     hist2.State,
			StateName: model.StateName(hist2.State),
			Timestamp: hist2.ManufacturedAt,
			TxHash:    hist3.TransactionHash,
		})
	}

	return &model.ArchivedRecord{
		UID:             part1.UID,
		SKU:             part1.SKU,
		ProductName:     part2.ProductName,
		ProductCode:     part2.ProductCode,
		ProductPrice:    part2.ProductPrice,
		ProductCategory: part2.ProductCategory,
		Manufacturer: model.Manufacturer{
			Address:        part1.ManufacturerAddress,
			Name:           part1.ManufacturerName,
			Details:        part1.ManufacturerDetails,
			Longitude:      part1.ManufacturerLongitude,
			Latitude:       part1.ManufacturerLatitude,
			ManufacturedAt: part2.ManufacturedAt,
		},
		ThirdParty: model.Waypoint{
			Address:   part2.ThirdPartyAddress,
			Longitude: part2.ThirdPartyLongitude,
			Latitude:  part3.ThirdPartyLatitude,
		},
		DeliveryHub: model.Waypoint{
			Address:   part3.DeliveryHubAddress,
			Longitude: part3.DeliveryHubLongitude,
			Latitude:  part3.DeliveryHubLatitude,
		},
		Customer:          model.Customer{Address: part3.CustomerAddress},
		History:           history,
		DaysInSupplyChain: a.elapsedDays(part2.ManufacturedAt),
	}, nil
}

func (a *Assembler) readParts(ctx context.Context, uid uint64, kind string, index uint64) (contract.Part1, contract.Part2, contract.Part3, error) {
	raw1, err := a.ledger.ProductPart1(ctx, uid, kind, index)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, fmt.Errorf("part1: %w", err)
	}
	part1, err := contract.DecodePart1(raw1)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, err
	}

	raw2, err := a.ledger.ProductPart2(ctx, uid, kind, index)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, fmt.Errorf("part2: %w", err)
	}
	part2, err := contract.DecodePart2(raw2)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, err
	}

	raw3, err := a.ledger.ProductPart3(ctx, uid, kind, index)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, fmt.Errorf("part3: %w", err)
	}
	part3, err := contract.DecodePart3(raw3)
	if err != nil {
		return contract.Part1{}, contract.Part2{}, contract.Part3{}, err
	}

	return part1, part2, part3, nil
}

// elapsedDays counts whole days between manufacture and now, floored.
// The value is computed once at assembly time; the pipeline persists it
// immediately, so it never drifts after archival.
func (a *Assembler) elapsedDays(manufacturedAt time.Time) int {
	elapsed := a.now().Sub(manufacturedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}
