package evm

import (
	"fmt"
	"math"
	"math/big"

	"github.com/everFinance/mandelseed/schema"
	"github.com/shopspring/decimal"
)

var (
	xOffset = decimal.New(21, -1) // 2.1
	yOffset = decimal.New(15, -1) // 1.5

	// region coordinates in ABI order: xMin, yMin, xMax, yMax
	regionOffsets = [4]decimal.Decimal{xOffset, yOffset, xOffset, yOffset}

	fixedPointScale = math.Pow10(schema.FixedPointDecimals)
	maxUint128      = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// DecodeRegion turns the four stored coordinates back into plane coordinates:
// value = stored / 10^18 - offset. The division is exact, the result is rounded
// once to float64.
func DecodeRegion(tuple []*big.Int) (schema.BoundingRegion, error) {
	if len(tuple) != 4 {
		return schema.BoundingRegion{}, fmt.Errorf("%w: region tuple has %d elements, want 4", schema.ErrDecode, len(tuple))
	}
	var vals [4]float64
	for i, v := range tuple {
		f, err := decodeFixed(v, regionOffsets[i])
		if err != nil {
			return schema.BoundingRegion{}, fmt.Errorf("region[%d]: %w", i, err)
		}
		vals[i] = f
	}
	return schema.BoundingRegion{
		XMin: vals[0],
		YMin: vals[1],
		XMax: vals[2],
		YMax: vals[3],
	}, nil
}

// EncodeRegion is the inverse of DecodeRegion. The scaled product is computed in
// float64 and truncated toward zero, matching what the minting side writes on chain.
func EncodeRegion(r schema.BoundingRegion) []*big.Int {
	return []*big.Int{
		encodeFixed(r.XMin, schema.XAxisOffset),
		encodeFixed(r.YMin, schema.YAxisOffset),
		encodeFixed(r.XMax, schema.XAxisOffset),
		encodeFixed(r.YMax, schema.YAxisOffset),
	}
}

func EncodeField(r schema.BoundingRegion) schema.RawField {
	t := EncodeRegion(r)
	return schema.RawField{XMin: t[0], YMin: t[1], XMax: t[2], YMax: t[3]}
}

func DecodeRecord(raw schema.RawToken) (schema.TokenRecord, error) {
	tokenId, err := decodeUint64(raw.TokenId, "tokenId")
	if err != nil {
		return schema.TokenRecord{}, err
	}
	parentId, err := decodeUint64(raw.ParentId, "parentId")
	if err != nil {
		return schema.TokenRecord{}, err
	}
	field, err := DecodeRegion(raw.Field.Tuple())
	if err != nil {
		return schema.TokenRecord{}, err
	}
	lockedFuel, err := decodeFixed(raw.LockedFuel, decimal.Zero)
	if err != nil {
		return schema.TokenRecord{}, fmt.Errorf("lockedFuel: %w", err)
	}
	minimumPrice, err := decodeFixed(raw.MinimumPrice, decimal.Zero)
	if err != nil {
		return schema.TokenRecord{}, fmt.Errorf("minimumPrice: %w", err)
	}
	layer, err := decodeUint64(raw.Layer, "layer")
	if err != nil {
		return schema.TokenRecord{}, err
	}

	return schema.TokenRecord{
		TokenId:      tokenId,
		Owner:        raw.Owner,
		ParentId:     parentId,
		Field:        field,
		LockedFuel:   lockedFuel,
		MinimumPrice: minimumPrice,
		Layer:        layer,
	}, nil
}

func EncodeRecord(rec schema.TokenRecord) schema.RawToken {
	return schema.RawToken{
		TokenId:      new(big.Int).SetUint64(rec.TokenId),
		Owner:        rec.Owner,
		ParentId:     new(big.Int).SetUint64(rec.ParentId),
		Field:        EncodeField(rec.Field),
		LockedFuel:   encodeFixed(rec.LockedFuel, 0),
		MinimumPrice: encodeFixed(rec.MinimumPrice, 0),
		Layer:        new(big.Int).SetUint64(rec.Layer),
	}
}

func decodeFixed(v *big.Int, offset decimal.Decimal) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing value", schema.ErrDecode)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return 0, fmt.Errorf("%w: %s exceeds uint128", schema.ErrDecode, v.String())
	}
	f, _ := decimal.NewFromBigInt(v, -schema.FixedPointDecimals).Sub(offset).Float64()
	return f, nil
}

// encodeFixed saturates: negative and NaN products become 0, overflow becomes 2^128-1.
func encodeFixed(v, offset float64) *big.Int {
	product := (v + offset) * fixedPointScale
	switch {
	case math.IsNaN(product) || product <= 0:
		return new(big.Int)
	case math.IsInf(product, 1):
		return new(big.Int).Set(maxUint128)
	}
	n, _ := new(big.Float).SetFloat64(product).Int(nil)
	if n.Cmp(maxUint128) > 0 {
		return new(big.Int).Set(maxUint128)
	}
	return n
}

func decodeUint64(v *big.Int, name string) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %s", schema.ErrDecode, name)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s %s exceeds uint64", schema.ErrDecode, name, v.String())
	}
	return v.Uint64(), nil
}
