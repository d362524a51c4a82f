package usecase

import "context"

// SalesReport lists paid order lines for the reporting API.
type SalesReport struct {
	repo SalesRepo
}

func NewSalesReport(repo SalesRepo) *SalesReport {
	return &SalesReport{repo: repo}
}

// List never returns a nil slice, so an empty report encodes as [].
func (uc *SalesReport) List(ctx context.Context) ([]SaleLine, error) {
	lines, err := uc.repo.ListPaid(ctx)
	if err != nil {
		return nil, storeErr("list sales", err)
	}
	if lines == nil {
		lines = []SaleLine{}
	}
	return lines, nil
}
