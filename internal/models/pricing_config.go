package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// PricingConfigVersion is the schema version this build understands.
// Configs carrying any other version are rejected at load time.
const PricingConfigVersion = 1

// PricingSize is one orderable size of a product.
type PricingSize struct {
	ID        string `json:"id"`        // e.g. "40x40"
	Label     string `json:"label"`     // display name
	Dimension string `json:"dimension"` // e.g. "40x40mm"
}

// PrintType is one print finish of a product.
type PrintType struct {
	ID              string  `json:"id"`    // e.g. "single", "double"
	Label           string  `json:"label"` // display name
	PriceMultiplier float64 `json:"price_multiplier"`
}

// PricingTier maps an inclusive quantity range to per-(print type, size)
// unit prices. MaxQty nil means unbounded.
type PricingTier struct {
	MinQty int              `json:"min_qty"`
	MaxQty *int             `json:"max_qty"`
	Prices map[string]int64 `json:"prices"`
}

// Contains reports whether qty falls inside the tier's range.
func (t PricingTier) Contains(qty int) bool {
	if qty < t.MinQty {
		return false
	}
	return t.MaxQty == nil || qty <= *t.MaxQty
}

// PricingConfig is the validated tier/size/print-type price table owned
// by a product. It is immutable per version: price changes ship a new
// config, carts keep the unit price frozen at add time.
type PricingConfig struct {
	Version    int           `json:"version"`
	Sizes      []PricingSize `json:"sizes"`
	PrintTypes []PrintType   `json:"print_types"`
	Tiers      []PricingTier `json:"tiers"`
}

// HasSize reports whether the config declares the size id.
func (c *PricingConfig) HasSize(sizeID string) bool {
	for _, size := range c.Sizes {
		if size.ID == sizeID {
			return true
		}
	}
	return false
}

// HasPrintType reports whether the config declares the print type id.
func (c *PricingConfig) HasPrintType(printTypeID string) bool {
	for _, pt := range c.PrintTypes {
		if pt.ID == printTypeID {
			return true
		}
	}
	return false
}

// TierFor returns the tier containing qty, or nil when qty falls past a
// bounded last tier.
func (c *PricingConfig) TierFor(qty int) *PricingTier {
	for i := range c.Tiers {
		if c.Tiers[i].Contains(qty) {
			return &c.Tiers[i]
		}
	}
	return nil
}

// PriceKey builds the compound price-map key for a (print type, size) pair.
func PriceKey(printTypeID, sizeID string) string {
	return printTypeID + "-" + sizeID
}

// Validate rejects malformed configs: wrong schema version, duplicate
// ids, overlapping or unordered tiers, a first tier not starting at 1,
// price keys referencing undeclared ids, or non-positive prices.
func (c *PricingConfig) Validate() error {
	if c == nil {
		return errors.New("pricing config is nil")
	}
	if c.Version != PricingConfigVersion {
		return fmt.Errorf("unsupported pricing config version %d", c.Version)
	}
	if len(c.Sizes) == 0 {
		return errors.New("pricing config has no sizes")
	}
	if len(c.PrintTypes) == 0 {
		return errors.New("pricing config has no print types")
	}
	if len(c.Tiers) == 0 {
		return errors.New("pricing config has no tiers")
	}

	sizeIDs := make(map[string]bool, len(c.Sizes))
	for _, size := range c.Sizes {
		if size.ID == "" {
			return errors.New("size id is empty")
		}
		if sizeIDs[size.ID] {
			return fmt.Errorf("duplicate size id %q", size.ID)
		}
		sizeIDs[size.ID] = true
	}
	printTypeIDs := make(map[string]bool, len(c.PrintTypes))
	for _, pt := range c.PrintTypes {
		if pt.ID == "" {
			return errors.New("print type id is empty")
		}
		if printTypeIDs[pt.ID] {
			return fmt.Errorf("duplicate print type id %q", pt.ID)
		}
		printTypeIDs[pt.ID] = true
	}

	if c.Tiers[0].MinQty != 1 {
		return fmt.Errorf("first tier must start at quantity 1, got %d", c.Tiers[0].MinQty)
	}
	for i, tier := range c.Tiers {
		if tier.MaxQty != nil && *tier.MaxQty < tier.MinQty {
			return fmt.Errorf("tier %d range inverted: %d-%d", i, tier.MinQty, *tier.MaxQty)
		}
		if i > 0 {
			prev := c.Tiers[i-1]
			if prev.MaxQty == nil {
				return fmt.Errorf("tier %d follows an unbounded tier", i)
			}
			if tier.MinQty != *prev.MaxQty+1 {
				return fmt.Errorf("tier %d min quantity %d does not continue previous max %d", i, tier.MinQty, *prev.MaxQty)
			}
		}
		for key, price := range tier.Prices {
			printTypeID, sizeID, ok := splitPriceKey(key, printTypeIDs)
			if !ok {
				return fmt.Errorf("tier %d price key %q references undeclared print type", i, key)
			}
			if !sizeIDs[sizeID] {
				return fmt.Errorf("tier %d price key %q references undeclared size %q", i, key, sizeID)
			}
			_ = printTypeID
			if price <= 0 {
				return fmt.Errorf("tier %d price %q must be positive, got %d", i, key, price)
			}
		}
	}
	return nil
}

// splitPriceKey resolves "printType-size" keys. Size ids may themselves
// contain dashes ("50x30"), so the split point is the longest declared
// print type id prefix.
func splitPriceKey(key string, printTypeIDs map[string]bool) (printTypeID, sizeID string, ok bool) {
	for id := range printTypeIDs {
		prefix := id + "-"
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			if len(id) > len(printTypeID) {
				printTypeID = id
				sizeID = key[len(prefix):]
			}
		}
	}
	return printTypeID, sizeID, printTypeID != ""
}

// Value implements driver.Valuer.
func (c PricingConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *PricingConfig) Scan(value interface{}) error {
	if value == nil {
		*c = PricingConfig{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, c)
}
