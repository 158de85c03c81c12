package financial

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/expense"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/money"
)

type AppointmentSource interface {
	ListAppointments(ctx context.Context, ownerID uuid.UUID, dr dateonly.Range, search string) ([]*scheduling.Appointment, error)
	Today(ctx context.Context, ownerID uuid.UUID) ([]*scheduling.Appointment, error)
}

type ExpenseSource interface {
	ListExpenses(ctx context.Context, ownerID uuid.UUID, f expense.Filter) ([]*expense.Expense, error)
}

type PatientCounter interface {
	Count(ctx context.Context, ownerID uuid.UUID) (int, error)
}

type Service struct {
	appointments AppointmentSource
	expenses     ExpenseSource
	patients     PatientCounter
	now          func() time.Time
}

func NewService(appts AppointmentSource, expenses ExpenseSource, patients PatientCounter) *Service {
	return &Service{appointments: appts, expenses: expenses, patients: patients, now: time.Now}
}

// CurrentMonth returns the year and month of today.
func (s *Service) CurrentMonth() (int, time.Month) {
	y, m, _ := s.now().Date()
	return y, m
}

// MonthlySummary totals the appointments and expenses dated in the month.
func (s *Service) MonthlySummary(ctx context.Context, ownerID uuid.UUID, year int, month time.Month) (*Summary, error) {
	dr := dateonly.Month(year, month)

	appts, err := s.appointments.ListAppointments(ctx, ownerID, dr, "")
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListExpenses(ctx, ownerID, expense.Filter{Range: dr})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Month:    dr.From.Format("2006-01"),
		From:     dr.From,
		To:       dr.To,
		Revenue:  revenue(appts),
		Expenses: expenseTotals(expenses),
	}
	sum.Net = money.Round(sum.Revenue.Total - sum.Expenses.Total)
	return sum, nil
}

func revenue(appts []*scheduling.Appointment) Revenue {
	var r Revenue
	for _, a := range appts {
		if a.PatientCategory == scheduling.CategoryInsurance {
			r.Insurance += a.Amount
		} else {
			r.Private += a.Amount
		}
		r.Total += a.Amount
	}
	r.Appointments = len(appts)
	r.Total = money.Round(r.Total)
	r.Insurance = money.Round(r.Insurance)
	r.Private = money.Round(r.Private)
	return r
}

// expenseTotals groups expenses by category, ignoring case, largest first.
func expenseTotals(items []*expense.Expense) Expenses {
	out := Expenses{ByCategory: []CategoryTotal{}}
	index := make(map[string]int)
	for _, e := range items {
		key := strings.ToLower(e.Category)
		i, ok := index[key]
		if !ok {
			i = len(out.ByCategory)
			index[key] = i
			out.ByCategory = append(out.ByCategory, CategoryTotal{Category: e.Category})
		}
		out.ByCategory[i].Total += e.Amount
		out.ByCategory[i].Count++
		out.Total += e.Amount
	}
	for i := range out.ByCategory {
		out.ByCategory[i].Total = money.Round(out.ByCategory[i].Total)
	}
	sort.SliceStable(out.ByCategory, func(i, j int) bool {
		if out.ByCategory[i].Total != out.ByCategory[j].Total {
			return out.ByCategory[i].Total > out.ByCategory[j].Total
		}
		return out.ByCategory[i].Category < out.ByCategory[j].Category
	})
	out.Total = money.Round(out.Total)
	return out
}

func (s *Service) Dashboard(ctx context.Context, ownerID uuid.UUID) (*Dashboard, error) {
	count, err := s.patients.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	today, err := s.appointments.Today(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Dashboard{
		Today:             dateonly.Of(now),
		PatientCount:      count,
		AppointmentCount:  len(today),
		TodayAppointments: today,
		NextAppointment:   nextAppointment(today, now),
	}, nil
}

// nextAppointment returns the earliest of appts that has not started by now.
func nextAppointment(appts []*scheduling.Appointment, now time.Time) *scheduling.Appointment {
	var next *scheduling.Appointment
	var nextStart time.Time
	for _, a := range appts {
		start := a.Start(now.Location())
		if start.Before(now) {
			continue
		}
		if next == nil || start.Before(nextStart) {
			next, nextStart = a, start
		}
	}
	return next
}
