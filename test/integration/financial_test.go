//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/expense"
	"github.com/clinicdesk/clinicdesk/internal/domain/financial"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

func newExpenseService() *expense.Service {
	return expense.NewService(expense.NewExpenseRepoPG(globalPool), expense.NewCategoryRepoPG(globalPool), nil)
}

func TestExpenseCRUDAndFilters(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	svc := newExpenseService()

	seed := []*expense.Expense{
		{Description: "Office rent", Amount: 1500, Date: dateonly.New(2024, time.June, 1), Category: "Rent"},
		{Description: "Gloves", Amount: 42.5, Date: dateonly.New(2024, time.June, 12), Category: "Supplies"},
		{Description: "Printer paper", Amount: 19.9, Date: dateonly.New(2024, time.May, 28), Category: "supplies"},
	}
	for _, e := range seed {
		e.OwnerID = owner.ID
		if err := svc.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	june, err := svc.ListExpenses(ctx, owner.ID, expense.Filter{Range: dateonly.Month(2024, time.June)})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(june) != 2 {
		t.Fatalf("expected 2 June expenses, got %d", len(june))
	}
	if june[0].Description != "Gloves" {
		t.Errorf("expected newest first, got %s", june[0].Description)
	}
	if june[0].Amount != 42.5 {
		t.Errorf("expected amount 42.5, got %v", june[0].Amount)
	}

	supplies, err := svc.ListExpenses(ctx, owner.ID, expense.Filter{Category: "SUPPLIES"})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(supplies) != 2 {
		t.Errorf("expected 2 supplies across months, got %d", len(supplies))
	}

	e := seed[0]
	e.Amount = 1600
	if err := svc.UpdateExpense(ctx, e); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, err := svc.GetExpense(ctx, owner.ID, e.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Amount != 1600 {
		t.Errorf("expected updated amount, got %v", got.Amount)
	}

	if err := svc.DeleteExpense(ctx, owner.ID, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := svc.GetExpense(ctx, owner.ID, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestExpenseCategories(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	svc := newExpenseService()

	if err := svc.CreateCategory(ctx, &expense.Category{OwnerID: owner.ID, Name: "Courses"}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	err := svc.CreateCategory(ctx, &expense.Category{OwnerID: owner.ID, Name: "Courses"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	cats, err := svc.ListCategories(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != len(expense.DefaultCategories)+1 {
		t.Fatalf("expected defaults plus one, got %d", len(cats))
	}
	last := cats[len(cats)-1]
	if last.Name != "Courses" || last.Default {
		t.Errorf("expected custom category last, got %+v", last)
	}
}

func TestMonthlySummaryAndDashboard(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	p := createTestPatient(t, ctx, owner.ID, "Fábio Nunes")

	sched := newSchedulingService()
	expenses := newExpenseService()
	patients := patient.NewService(patient.NewRepoPG(globalPool), nil)

	base := scheduling.Appointment{
		OwnerID:   owner.ID,
		PatientID: ptrUUID(p.ID),
		Time:      "09:00",
		Duration:  50,
		CareType:  "Therapy",
	}
	insured := base
	insured.Date = dateonly.New(2024, time.March, 4)
	insured.Amount = 120
	insured.PatientCategory = scheduling.CategoryInsurance
	private := base
	private.Date = dateonly.New(2024, time.March, 11)
	private.Amount = 200.55
	private.PatientCategory = scheduling.CategoryPrivate
	outside := private
	outside.Date = dateonly.New(2024, time.April, 1)

	for _, a := range []scheduling.Appointment{insured, private, outside} {
		if _, err := sched.CreateAppointments(ctx, &scheduling.CreateRequest{Appointment: a}); err != nil {
			t.Fatalf("CreateAppointments: %v", err)
		}
	}
	for _, e := range []*expense.Expense{
		{OwnerID: owner.ID, Description: "Rent", Amount: 100, Date: dateonly.New(2024, time.March, 1), Category: "Rent"},
		{OwnerID: owner.ID, Description: "Cotton", Amount: 10.25, Date: dateonly.New(2024, time.March, 20), Category: "Supplies"},
	} {
		if err := expenses.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	fin := financial.NewService(sched, expenses, patients)
	sum, err := fin.MonthlySummary(ctx, owner.ID, 2024, time.March)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if sum.Revenue.Total != 320.55 {
		t.Errorf("expected revenue 320.55, got %v", sum.Revenue.Total)
	}
	if sum.Revenue.Insurance != 120 || sum.Revenue.Private != 200.55 {
		t.Errorf("unexpected revenue split: %+v", sum.Revenue)
	}
	if sum.Expenses.Total != 110.25 {
		t.Errorf("expected expenses 110.25, got %v", sum.Expenses.Total)
	}
	if sum.Net != 210.3 {
		t.Errorf("expected net 210.3, got %v", sum.Net)
	}
	if len(sum.Expenses.ByCategory) != 2 || sum.Expenses.ByCategory[0].Category != "Rent" {
		t.Errorf("unexpected categories: %+v", sum.Expenses.ByCategory)
	}

	dash, err := fin.Dashboard(ctx, owner.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.PatientCount != 1 {
		t.Errorf("expected 1 patient, got %d", dash.PatientCount)
	}
}
