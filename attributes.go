package mandelseed

import (
	"math"

	"github.com/everFinance/mandelseed/schema"
)

// Attributes derives the display attributes of a token, in display order.
func Attributes(rec schema.TokenRecord) []schema.Attribute {
	return []schema.Attribute{
		{
			DisplayType: schema.DisplayTypeNumber,
			TraitType:   schema.TraitParentId,
			Value:       schema.IntValue(rec.ParentId),
		},
		{
			DisplayType: schema.DisplayTypeNumber,
			TraitType:   schema.TraitLockedFuel,
			Value:       schema.FloatValue(rec.LockedFuel),
		},
		{
			DisplayType: schema.DisplayTypeNumber,
			TraitType:   schema.TraitLayer,
			Value:       schema.IntValue(rec.Layer),
		},
		{
			DisplayType: schema.DisplayTypeNumber,
			TraitType:   schema.TraitDepth,
			Value:       schema.FloatValue(Depth(rec.Field)),
		},
	}
}

// Depth is the zoom level of a region: log base 0.5 of min(width, height) / 4.
// Computed as -log2 so that power-of-two sizes give exact results.
func Depth(r schema.BoundingRegion) float64 {
	return -math.Log2(math.Min(r.Width(), r.Height()) / 4)
}
