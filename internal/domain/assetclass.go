package domain

import "fmt"

// AssetClass is a risk bucket with its own circuit-breaker thresholds.
// Fixed enum so breaker handling stays exhaustive at compile time.
type AssetClass int

// Asset class values.
const (
	AssetMemecoin AssetClass = iota
	AssetBags
	AssetBluechip
	AssetXStock
	AssetIndex
	AssetPrestock

	// NumAssetClasses sizes enum-indexed breaker arrays.
	NumAssetClasses
)

var assetClassNames = [NumAssetClasses]string{
	AssetMemecoin: "memecoin",
	AssetBags:     "bags",
	AssetBluechip: "bluechip",
	AssetXStock:   "xstock",
	AssetIndex:    "index",
	AssetPrestock: "prestock",
}

// String returns the lowercase class name.
func (c AssetClass) String() string {
	if c < 0 || c >= NumAssetClasses {
		return fmt.Sprintf("assetclass(%d)", int(c))
	}
	return assetClassNames[c]
}

// Valid reports whether c is a known asset class.
func (c AssetClass) Valid() bool {
	return c >= 0 && c < NumAssetClasses
}

// ParseAssetClass converts a class name to its enum value.
func ParseAssetClass(s string) (AssetClass, error) {
	for i, name := range assetClassNames {
		if name == s {
			return AssetClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown asset class %q", s)
}

// AllAssetClasses returns every class in enum order.
func AllAssetClasses() [NumAssetClasses]AssetClass {
	var out [NumAssetClasses]AssetClass
	for i := range out {
		out[i] = AssetClass(i)
	}
	return out
}
