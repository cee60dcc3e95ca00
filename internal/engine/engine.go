// Package engine drives one enrichment job from queued to a terminal
// phase: paginated employee discovery per company, then sequential email
// and phone enrichment per employee under a shared rate budget.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/prospeo"
)

// Sink receives the orchestrator's output: status deltas and result
// rows. A job implements Sink; the engine never inspects subscribers.
type Sink interface {
	Publish(model.Delta)
	Append(model.ResultRow)
}

// Engine owns the shared pacing budget and runs jobs against a provider
// client built from each job's credential.
type Engine struct {
	pacer *rate.Limiter
}

// New creates an engine that spaces consecutive remote calls by the
// given interval. All jobs share the one pacer: within a job calls are
// strictly sequential anyway, and across jobs the shared budget keeps
// the credentialed provider account inside its rate limit.
func New(requestInterval time.Duration) *Engine {
	if requestInterval <= 0 {
		requestInterval = time.Second
	}
	return &Engine{pacer: rate.NewLimiter(rate.Every(requestInterval), 1)}
}

func ptr[T any](v T) *T { return &v }

// Run processes every input row in order and drives the sink's snapshot
// from queued through enriching to done. Any unexpected failure — the
// provider client absorbs all remote ones — publishes a single error
// delta and stops. Run never returns an error: the terminal phase is
// the outcome.
func (e *Engine) Run(ctx context.Context, client prospeo.Client, rows []model.Row, mapping model.ColumnMapping, opts model.Options, sink Sink) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrichment run panicked", zap.Any("panic", r))
			sink.Publish(model.Delta{
				Phase: ptr(model.PhaseError),
				Error: ptr(fmt.Sprintf("internal error: %v", r)),
			})
		}
	}()

	if err := e.run(ctx, client, rows, mapping, opts, sink); err != nil {
		zap.L().Error("enrichment run failed", zap.Error(err))
		sink.Publish(model.Delta{
			Phase: ptr(model.PhaseError),
			Error: ptr(err.Error()),
		})
	}
}

func (e *Engine) run(ctx context.Context, client prospeo.Client, rows []model.Row, mapping model.ColumnMapping, opts model.Options, sink Sink) error {
	total := len(rows)
	employees, emails, phones := 0, 0, 0

	for i, row := range rows {
		companyURL := strings.TrimSpace(row[mapping.CompanyURL])
		label := companyLabel(row, mapping, companyURL)

		sink.Publish(model.Delta{
			Phase:              ptr(model.PhaseEnriching),
			CompanyCurrent:     ptr(i + 1),
			CompanyTotal:       ptr(total),
			CurrentCompanyName: ptr(label),
		})

		if companyURL == "" {
			zap.L().Debug("skipping row with empty company URL", zap.Int("row", i+1))
			continue
		}

		found, err := e.fetchAllEmployees(ctx, client, companyURL)
		if err != nil {
			return err
		}
		employees += len(found)
		sink.Publish(model.Delta{EmployeesFound: ptr(employees)})

		zap.L().Info("company discovered",
			zap.String("company", label),
			zap.Int("employees", len(found)),
		)

		for _, emp := range found {
			exp := relevantExperience(emp, companyURL)

			var email, emailStatus, phone string
			if emp.ProfileURL != "" {
				if err := e.pacer.Wait(ctx); err != nil {
					return err
				}
				emailResp, err := client.EmailFinder(ctx, emp.ProfileURL)
				if err != nil {
					return err
				}
				email, emailStatus = emailResp.Email, emailResp.EmailStatus
				if email != "" {
					emails++
					sink.Publish(model.Delta{EmailsFound: ptr(emails)})
				}

				if !opts.SkipPhone {
					if err := e.pacer.Wait(ctx); err != nil {
						return err
					}
					phoneResp, err := client.MobileFinder(ctx, emp.ProfileURL)
					if err != nil {
						return err
					}
					phone = phoneResp.Phone
					if phone != "" {
						phones++
						sink.Publish(model.Delta{PhonesFound: ptr(phones)})
					}
				}
			}

			sink.Append(model.ResultRow{
				CompanyName:     valueOf(row, mapping.Name),
				CompanyURL:      companyURL,
				CompanyDomain:   valueOf(row, mapping.Domain),
				CompanyLocation: valueOf(row, mapping.Location),
				CompanySize:     valueOf(row, mapping.Size),
				FullName:        emp.FullName,
				Title:           displayTitle(exp, emp),
				Location:        emp.Location,
				ProfileURL:      emp.ProfileURL,
				Email:           email,
				EmailStatus:     emailStatus,
				Phone:           phone,
			})
		}
	}

	sink.Publish(model.Delta{
		Phase:          ptr(model.PhaseDone),
		CompanyCurrent: ptr(total),
		CompanyTotal:   ptr(total),
		EmployeesFound: ptr(employees),
		EmailsFound:    ptr(emails),
		PhonesFound:    ptr(phones),
		Done:           ptr(true),
	})
	return nil
}

// companyLabel is the running label shown in progress snapshots: the
// display-name column when mapped, else the identifier URL.
func companyLabel(row model.Row, mapping model.ColumnMapping, companyURL string) string {
	if name := valueOf(row, mapping.Name); name != "" {
		return name
	}
	return companyURL
}

// valueOf reads an optional mapped column, empty when the role is absent.
func valueOf(row model.Row, column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(row[column])
}
