package schema

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// FixedPointDecimals is the scale of every fixed-point value stored by the contract.
	FixedPointDecimals = 18

	// per-axis offsets added before scaling so that stored values stay unsigned
	XAxisOffset = 2.1
	YAxisOffset = 1.5
)

// BoundingRegion is the viewport of a token on the complex plane.
// XMin < XMax and YMin < YMax is expected but not enforced here.
type BoundingRegion struct {
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	XMax float64 `json:"xMax"`
	YMax float64 `json:"yMax"`
}

func (r BoundingRegion) Width() float64 {
	return r.XMax - r.XMin
}

func (r BoundingRegion) Height() float64 {
	return r.YMax - r.YMin
}

// TokenRecord is the decoded snapshot of getMetadata(id).
type TokenRecord struct {
	TokenId      uint64         `json:"tokenId"`
	Owner        common.Address `json:"owner"`
	ParentId     uint64         `json:"parentId"`
	Field        BoundingRegion `json:"field"`
	LockedFuel   float64        `json:"lockedFuel"`
	MinimumPrice float64        `json:"minimumPrice"`
	Layer        uint64         `json:"layer"`
}

// RawField mirrors the Field tuple returned by the contract.
// Field order must follow the ABI component order.
type RawField struct {
	XMin *big.Int
	YMin *big.Int
	XMax *big.Int
	YMax *big.Int
}

// Tuple returns the coordinates in ABI order: xMin, yMin, xMax, yMax.
func (f RawField) Tuple() []*big.Int {
	return []*big.Int{f.XMin, f.YMin, f.XMax, f.YMax}
}

// RawToken mirrors the Metadata tuple returned by the contract.
type RawToken struct {
	TokenId      *big.Int
	Owner        common.Address
	ParentId     *big.Int
	Field        RawField
	LockedFuel   *big.Int
	MinimumPrice *big.Int
	Layer        *big.Int
}
