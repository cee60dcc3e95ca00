package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow/pkg/prospeo"
)

// employeePageSize is the fixed page size for the company search.
const employeePageSize = 100

// fetchAllEmployees drives the paginated company search to exhaustion.
// Pagination stops as soon as a page comes back shorter than the fixed
// page size; a company whose headcount is an exact multiple of the page
// size therefore costs one extra empty page fetch. Every page fetch
// waits on the shared pacer first.
func (e *Engine) fetchAllEmployees(ctx context.Context, client prospeo.Client, companyURL string) ([]prospeo.Employee, error) {
	var all []prospeo.Employee

	for page := 1; ; page++ {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := client.CompanyEmployees(ctx, companyURL, employeePageSize, page)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Employees...)
		zap.L().Debug("fetched employee page",
			zap.String("company", companyURL),
			zap.Int("page", page),
			zap.Int("count", len(resp.Employees)),
		)

		if len(resp.Employees) < employeePageSize {
			return all, nil
		}
	}
}
