package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/antonholmquist/jason"
)

// BrandUnknown is reported when a candidate carries neither brand owner nor brand name
const BrandUnknown = "unknown"

// FoodCandidate is one entry of a USDA search response
type FoodCandidate struct {
	FdcID         int64          `json:"fdcId"`
	Description   TextField      `json:"description"`
	BrandOwner    TextField      `json:"brandOwner,omitempty"`
	BrandName     TextField      `json:"brandName,omitempty"`
	Ingredients   TextField      `json:"ingredients,omitempty"`
	DataType      TextField      `json:"dataType,omitempty"`
	FoodNutrients []FoodNutrient `json:"foodNutrients,omitempty"`
}

// Brand returns the brand owner, falling back to the brand name
func (c *FoodCandidate) Brand() string {
	if !c.BrandOwner.IsEmpty() {
		return c.BrandOwner.String()
	}
	if !c.BrandName.IsEmpty() {
		return c.BrandName.String()
	}
	return BrandUnknown
}

// GenericNutrients implements NutrientSource
func (c *FoodCandidate) GenericNutrients() []FoodNutrient {
	return c.FoodNutrients
}

// PackagedNutrients implements NutrientSource; search hits never carry label nutrients
func (c *FoodCandidate) PackagedNutrients() LabelNutrients {
	return nil
}

// FoodDetail is the full record returned by the USDA food detail endpoint
type FoodDetail struct {
	FdcID              int64          `json:"fdcId"`
	Description        TextField      `json:"description"`
	Ingredients        TextField      `json:"ingredients,omitempty"`
	FoodNutrients      []FoodNutrient `json:"foodNutrients,omitempty"`
	LabelNutrients     LabelNutrients `json:"labelNutrients,omitempty"`
	DataType           TextField      `json:"dataType,omitempty"`
	FoodCategory       TextField      `json:"foodCategory,omitempty"`
	SubtypeDescription TextField      `json:"subtypeDescription,omitempty"`
}

// IsEmpty reports whether the record carries no nutrients and no text
func (d *FoodDetail) IsEmpty() bool {
	return len(d.FoodNutrients) == 0 &&
		len(d.LabelNutrients) == 0 &&
		d.Description.IsEmpty() &&
		d.Ingredients.IsEmpty() &&
		d.DataType.IsEmpty() &&
		d.FoodCategory.IsEmpty() &&
		d.SubtypeDescription.IsEmpty()
}

// GenericNutrients implements NutrientSource
func (d *FoodDetail) GenericNutrients() []FoodNutrient {
	return d.FoodNutrients
}

// PackagedNutrients implements NutrientSource
func (d *FoodDetail) PackagedNutrients() LabelNutrients {
	return d.LabelNutrients
}

// NutrientSource is anything the nutrient extractor can read from
type NutrientSource interface {
	GenericNutrients() []FoodNutrient
	PackagedNutrients() LabelNutrients
}

// FoodNutrient is one entry of the generic per-100g nutrient list.
// Value keeps the JSON literal so "5" and "5.0" render as sent.
type FoodNutrient struct {
	NutrientName string      `json:"nutrientName"`
	Value        json.Number `json:"value,omitempty"`
	UnitName     string      `json:"unitName,omitempty"`
}

// HasValue reports whether the upstream entry carried a value
func (n FoodNutrient) HasValue() bool {
	return n.Value != ""
}

// UnmarshalJSON accepts both the abridged shape used by search results
// ({nutrientName, value, unitName}) and the full detail shape
// ({nutrient: {name, unitName}, amount}).
func (n *FoodNutrient) UnmarshalJSON(data []byte) error {
	var raw struct {
		NutrientName string       `json:"nutrientName"`
		Value        *json.Number `json:"value"`
		UnitName     string       `json:"unitName"`
		Amount       *json.Number `json:"amount"`
		Nutrient     *struct {
			Name     string `json:"name"`
			UnitName string `json:"unitName"`
		} `json:"nutrient"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode nutrient: %w", err)
	}

	*n = FoodNutrient{NutrientName: raw.NutrientName, UnitName: raw.UnitName}
	if raw.Value != nil {
		n.Value = *raw.Value
	}

	if raw.Nutrient != nil {
		if n.NutrientName == "" {
			n.NutrientName = raw.Nutrient.Name
		}
		if n.UnitName == "" {
			n.UnitName = raw.Nutrient.UnitName
		}
	}
	if n.Value == "" && raw.Amount != nil {
		n.Value = *raw.Amount
	}

	return nil
}

// LabelNutrient is one entry of a branded product's label nutrient panel
type LabelNutrient struct {
	Key      string
	Value    json.Number
	UnitName string
}

// LabelNutrients keeps label entries in the order USDA sent them
type LabelNutrients []LabelNutrient

// UnmarshalJSON walks the labelNutrients object key by key. Entries that are
// not objects or have no value are dropped; a non-object panel decodes empty.
func (l *LabelNutrients) UnmarshalJSON(data []byte) error {
	*l = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode label nutrients: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode label nutrients: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode label nutrient %q: %w", key, err)
		}

		if entry, ok := parseLabelNutrient(key, raw); ok {
			*l = append(*l, entry)
		}
	}

	return nil
}

// MarshalJSON writes the panel back as an object in stored order
func (l LabelNutrients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(struct {
			Value    json.Number `json:"value"`
			UnitName string      `json:"unitName,omitempty"`
		}{entry.Value, entry.UnitName})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseLabelNutrient(key string, raw json.RawMessage) (LabelNutrient, bool) {
	obj, err := jason.NewObjectFromBytes(raw)
	if err != nil {
		return LabelNutrient{}, false
	}

	value, err := obj.GetValue("value")
	if err != nil {
		return LabelNutrient{}, false
	}

	entry := LabelNutrient{Key: key}
	if n, err := value.Number(); err == nil {
		entry.Value = n
	} else if s, err := value.String(); err == nil {
		entry.Value = json.Number(s)
	} else {
		return LabelNutrient{}, false
	}

	if unit, err := obj.GetString("unitName"); err == nil {
		entry.UnitName = unit
	}

	return entry, true
}

// SearchResponse represents the response from USDA search API
type SearchResponse struct {
	Foods       []FoodCandidate `json:"foods"`
	TotalHits   int             `json:"totalHits"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
}
