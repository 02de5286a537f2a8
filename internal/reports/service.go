package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/billing"
	"github.com/odyssey-erp/odyssey-pos/internal/credits"
)

// Source supplies bills and the credit ledger.
type Source interface {
	List(ctx context.Context, filter billing.ListFilter) ([]billing.Bill, error)
	Credits(ctx context.Context) (credits.Credits, error)
}

// Service builds reports on demand.
type Service struct {
	source Source
	loc    *time.Location
}

// NewService builds Service. Periods are cut in loc, UTC when nil.
func NewService(source Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, loc: loc}
}

func (s *Service) bills(ctx context.Context, f Filter) ([]billing.Bill, error) {
	bills, err := s.source.List(ctx, billing.ListFilter{From: f.From, To: f.To})
	if err != nil {
		return nil, fmt.Errorf("reports: list bills: %w", err)
	}
	return bills, nil
}

// Items returns the item-wise report.
func (s *Service) Items(ctx context.Context, f Filter) (ItemReport, error) {
	bills, err := s.bills(ctx, f)
	if err != nil {
		return ItemReport{}, err
	}
	return BuildItemReport(bills, f.Query), nil
}

// Bills returns the bill-wise report.
func (s *Service) Bills(ctx context.Context, f Filter) (BillReport, error) {
	bills, err := s.bills(ctx, f)
	if err != nil {
		return BillReport{}, err
	}
	return BuildBillReport(bills, f.Query), nil
}

// Summary returns bill totals grouped by period.
func (s *Service) Summary(ctx context.Context, f Filter, g Grouping) (SummaryReport, error) {
	bills, err := s.bills(ctx, f)
	if err != nil {
		return SummaryReport{}, err
	}
	return BuildSummary(bills, g, s.loc), nil
}

// Credits returns outstanding customer credits. The date filter does not
// apply; the last credit bill is looked up across all history.
func (s *Service) Credits(ctx context.Context, query string) (CreditReport, error) {
	ledger, err := s.source.Credits(ctx)
	if err != nil {
		return CreditReport{}, fmt.Errorf("reports: load credits: %w", err)
	}
	bills, err := s.bills(ctx, Filter{})
	if err != nil {
		return CreditReport{}, err
	}
	return BuildCreditReport(ledger, bills, query), nil
}
