package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/k3a/html2text"
	"github.com/macrolens/allergenscan/internal/domain"
)

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	PageSize   int
	Categories []AllergenCategory
	Logger     *slog.Logger
	Recorder   domain.ReportRecorder
}

// ReportService builds allergen and nutrition reports from USDA data
type ReportService struct {
	usdaClient   domain.USDAClient
	detector     *AllergenDetector
	preprocessor *QueryPreprocessor
	pageSize     int
	logger       *slog.Logger
	recorder     domain.ReportRecorder
}

// NewReportService creates a new report service with dependencies
func NewReportService(usdaClient domain.USDAClient, config ReportServiceConfig) *ReportService {
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultSearchSize
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "report")

	return &ReportService{
		usdaClient:   usdaClient,
		detector:     NewAllergenDetector(config.Categories),
		preprocessor: NewQueryPreprocessor(logger),
		pageSize:     pageSize,
		logger:       logger,
		recorder:     config.Recorder,
	}
}

// BuildReport looks up a food and summarizes its allergens and macros.
// Flow: search USDA -> take first hit -> fetch detail -> scan text -> extract nutrients
//
// Search failures and empty results are returned as errors wrapping
// domain.ErrSearchFailed and domain.ErrNoResults. A failed detail fetch is not
// an error: the report is built from the search hit alone.
func (s *ReportService) BuildReport(ctx context.Context, query string) (*domain.Report, error) {
	query = s.preprocessor.PreprocessQuery(query)
	if query == "" {
		s.record(domain.OutcomeInvalid, nil)
		return nil, domain.ErrInvalidRequest
	}

	searchResult, err := s.usdaClient.SearchFoods(ctx, query, s.pageSize)
	if err != nil {
		s.logger.Warn("search failed", "query", query, "error", err)
		s.record(domain.OutcomeSearchFailed, nil)
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}

	if searchResult == nil || len(searchResult.Foods) == 0 {
		s.record(domain.OutcomeNoResults, nil)
		return nil, fmt.Errorf("%w for: %s", domain.ErrNoResults, query)
	}

	// No ranking of our own: USDA ordering decides
	candidate := searchResult.Foods[0]

	detail, err := s.fetchDetail(ctx, &candidate)
	if err != nil {
		s.logger.Warn("continuing with search data only", "fdc_id", candidate.FdcID, "error", err)
	}

	report := s.assemble(&candidate, detail)

	s.logger.Debug("report built",
		"query", query,
		"fdc_id", report.FdcID,
		"allergens", report.Allergens,
		"detail", detail != nil)
	s.record(domain.OutcomeOK, detectedOnly(report))

	return report, nil
}

// fetchDetail retrieves the detail record for a candidate. The returned
// error always wraps domain.ErrDetailUnavailable.
func (s *ReportService) fetchDetail(ctx context.Context, candidate *domain.FoodCandidate) (*domain.FoodDetail, error) {
	if candidate.FdcID == 0 {
		return nil, fmt.Errorf("%w: candidate has no fdcId", domain.ErrDetailUnavailable)
	}

	detail, err := s.usdaClient.GetFoodDetails(ctx, candidate.FdcID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetailUnavailable, err)
	}
	if detail == nil || detail.IsEmpty() {
		return nil, fmt.Errorf("%w: empty response", domain.ErrDetailUnavailable)
	}

	return detail, nil
}

// assemble turns a search hit and its optional detail record into a report
func (s *ReportService) assemble(candidate *domain.FoodCandidate, detail *domain.FoodDetail) *domain.Report {
	description := candidate.Description.String()
	brand := candidate.Brand()
	searchIngredients := candidate.Ingredients.String()

	var detailIngredients string
	var nutrients domain.NutrientSource = candidate
	textParts := []string{description, brand, searchIngredients}

	if detail != nil {
		detailIngredients = detail.Ingredients.String()
		nutrients = detail
		textParts = append(textParts,
			detailIngredients,
			detail.DataType.String(),
			detail.FoodCategory.String(),
			detail.SubtypeDescription.String(),
		)
	}

	allergens := s.detector.Detect(aggregateText(textParts))
	table := ExtractNutrients(nutrients)

	return &domain.Report{
		FdcID:              candidate.FdcID,
		Name:               description,
		Brand:              brand,
		Calories:           FormatCalories(table),
		Protein:            FormatProtein(table),
		IngredientsSearch:  orNotAvailable(searchIngredients),
		IngredientsDetails: orNotAvailable(detailIngredients),
		Allergens:          allergenLabels(allergens),
	}
}

// markupPattern matches tag openings and character entities. A bare "<" as
// in "CONTAINS <2% OF" is not markup.
var markupPattern = regexp.MustCompile(`<[A-Za-z/!]|&(?:#\d+|#[xX][0-9A-Fa-f]+|\w+);`)

// aggregateText joins the non-empty parts with single spaces. Parts carrying
// HTML tags or entities are flattened to plain text first.
func aggregateText(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if markupPattern.MatchString(p) {
			p = html2text.HTML2Text(p)
		}
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func allergenLabels(found AllergenSet) []string {
	if len(found) == 0 {
		return []string{domain.NoAllergensFound}
	}
	return found.Sorted()
}

func detectedOnly(report *domain.Report) []string {
	if !report.HasAllergens() {
		return nil
	}
	return report.Allergens
}

func orNotAvailable(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}

func (s *ReportService) record(outcome string, allergens []string) {
	if s.recorder != nil {
		s.recorder.RecordReport(outcome, allergens)
	}
}
