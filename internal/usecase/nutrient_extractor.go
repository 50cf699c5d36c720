package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/macrolens/allergenscan/internal/domain"
)

// kilojoulesPerKilocalorie converts USDA energy values reported in kJ
const kilojoulesPerKilocalorie = 4.184

// Default units for label nutrients that arrive without one
const (
	defaultLabelUnit  = "g"
	defaultEnergyUnit = "kcal"
)

// NutrientValue is a single nutrient amount with its unit
type NutrientValue struct {
	Value json.Number
	Unit  string
}

// String renders "{value} {unit}"
func (v NutrientValue) String() string {
	return fmt.Sprintf("%s %s", v.Value, v.Unit)
}

// NutrientTable maps lowercase nutrient names to values, remembering the
// order in which names were first inserted. Overwriting a name keeps its slot.
type NutrientTable struct {
	keys   []string
	values map[string]NutrientValue
}

// NewNutrientTable creates an empty table
func NewNutrientTable() *NutrientTable {
	return &NutrientTable{values: make(map[string]NutrientValue)}
}

// Set stores a value under the lowercased key
func (t *NutrientTable) Set(key string, value NutrientValue) {
	key = strings.ToLower(key)
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Get looks up a nutrient by name
func (t *NutrientTable) Get(key string) (NutrientValue, bool) {
	v, ok := t.values[strings.ToLower(key)]
	return v, ok
}

// Keys returns the nutrient names in insertion order
func (t *NutrientTable) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of nutrients in the table
func (t *NutrientTable) Len() int {
	return len(t.keys)
}

// ExtractNutrients merges the generic nutrient list and the label nutrient
// panel of a food into one table. Label entries win on shared keys.
func ExtractNutrients(source domain.NutrientSource) *NutrientTable {
	table := NewNutrientTable()
	if source == nil {
		return table
	}

	for _, nutrient := range source.GenericNutrients() {
		if nutrient.NutrientName == "" || !nutrient.HasValue() {
			continue
		}
		table.Set(nutrient.NutrientName, NutrientValue{Value: nutrient.Value, Unit: nutrient.UnitName})
	}

	for _, label := range source.PackagedNutrients() {
		unit := label.UnitName
		if unit == "" {
			unit = defaultUnitForLabel(label.Key)
		}
		table.Set(label.Key, NutrientValue{Value: label.Value, Unit: unit})
	}

	return table
}

func defaultUnitForLabel(key string) string {
	switch strings.ToLower(key) {
	case "calories", "energy":
		return defaultEnergyUnit
	default:
		return defaultLabelUnit
	}
}

// FormatCalories renders the energy content of a food. Values reported in
// kilojoules also show the kcal equivalent.
func FormatCalories(table *NutrientTable) string {
	if energy, ok := table.Get("energy"); ok {
		if strings.EqualFold(energy.Unit, "kj") {
			if kj, err := energy.Value.Float64(); err == nil {
				kcal := math.Round(kj/kilojoulesPerKilocalorie*10) / 10
				return fmt.Sprintf("%s kJ (~%s kcal)", energy.Value, strconv.FormatFloat(kcal, 'f', 1, 64))
			}
		}
		energy.Unit = strings.ToLower(energy.Unit)
		if energy.Unit == "" {
			energy.Unit = defaultEnergyUnit
		}
		return energy.String()
	}

	if calories, ok := table.Get("calories"); ok {
		return calories.String()
	}

	for _, key := range table.keys {
		if strings.Contains(key, "calor") || strings.Contains(key, "energy") {
			return strings.TrimSpace(table.values[key].String())
		}
	}

	return domain.NotAvailable
}

// FormatProtein renders the first protein-like entry in insertion order
func FormatProtein(table *NutrientTable) string {
	for _, key := range table.keys {
		if !strings.Contains(key, "protein") {
			continue
		}
		v := table.values[key]
		if v.Unit == "" {
			v.Unit = defaultLabelUnit
		}
		return v.String()
	}
	return domain.NotAvailable
}
