package domain

// Display sentinels used when a report field has nothing to show
const (
	NotAvailable      = "N/A"
	NoAllergensFound  = "No major allergens found"
	DefaultSearchSize = 3

	// EmptyQueryHint is shown when the user submits a blank food name
	EmptyQueryHint = "Please type a food name (e.g. 'Peanut M&M')."
)

// Report outcomes passed to ReportRecorder
const (
	OutcomeOK           = "ok"
	OutcomeNoResults    = "no_results"
	OutcomeSearchFailed = "search_failed"
	OutcomeInvalid      = "invalid"
)

// Report is the allergen and nutrition summary for one food query
type Report struct {
	FdcID              int64    `json:"fdcId" yaml:"fdcId"`
	Name               string   `json:"name" yaml:"name"`
	Brand              string   `json:"brand" yaml:"brand"`
	Calories           string   `json:"calories" yaml:"calories"`
	Protein            string   `json:"protein" yaml:"protein"`
	IngredientsSearch  string   `json:"ingredients_search" yaml:"ingredients_search"`
	IngredientsDetails string   `json:"ingredients_details" yaml:"ingredients_details"`
	Allergens          []string `json:"allergens" yaml:"allergens"`
}

// HasAllergens reports whether detection flagged at least one category
func (r *Report) HasAllergens() bool {
	return len(r.Allergens) > 0 && !(len(r.Allergens) == 1 && r.Allergens[0] == NoAllergensFound)
}

// ErrorResult is the error value exposed to presentation collaborators
type ErrorResult struct {
	Error string `json:"error" yaml:"error"`
}
