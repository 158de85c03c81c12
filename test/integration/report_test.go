//go:build integration

package integration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/clinical"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/report"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apperr"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/reporting"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

func TestReportPreviewFromDatabase(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)

	identitySvc := newIdentityService(t, &resetCapture{})
	if err := identitySvc.UpdateProfile(ctx, &identity.Profile{ID: owner.ID, Name: "Dr. Lia Prado", Specialization: "Neurology"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	patients := patient.NewService(patient.NewRepoPG(globalPool), nil)
	p := &patient.Patient{OwnerID: owner.ID, Name: "Marcos Teles", BirthDate: dateonly.New(1985, time.November, 2)}
	if err := patients.Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}

	clinicalSvc := newClinicalService()
	if err := clinicalSvc.CreateRecord(ctx, &clinical.Record{OwnerID: owner.ID, PatientID: p.ID, ChiefComplaint: "Headache", Diagnosis: "Migraine"}); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if err := clinicalSvc.CreateEvolution(ctx, &clinical.Evolution{OwnerID: owner.ID, PatientID: p.ID, Date: dateonly.New(2024, time.January, 8), Description: "Fewer episodes"}); err != nil {
		t.Fatalf("CreateEvolution: %v", err)
	}

	sched := newSchedulingService()
	if _, err := sched.CreateAppointments(ctx, &scheduling.CreateRequest{Appointment: scheduling.Appointment{
		OwnerID:         owner.ID,
		PatientID:       ptrUUID(p.ID),
		Date:            dateonly.New(2024, time.January, 8),
		Time:            "16:00",
		Duration:        60,
		Amount:          250,
		CareType:        "Consultation",
		PatientCategory: scheduling.CategoryPrivate,
	}}); err != nil {
		t.Fatalf("CreateAppointments: %v", err)
	}

	svc := report.NewService(report.NewRepoPG(globalPool), report.Sources{
		Profiles:     identitySvc,
		Patients:     patients,
		Clinical:     clinicalSvc,
		Appointments: sched,
	}, nil)

	tmpl := &report.Template{
		OwnerID: owner.ID,
		Name:    "Attendance",
		Body:    "{{professional}} ({{specialization}}) saw {{patient_name}}, born {{birth_date}}, on {{appointment_dates}} for {{diagnosis}}. {{signature}}",
	}
	if err := svc.Create(ctx, tmpl); err != nil {
		t.Fatalf("Create template: %v", err)
	}
	if len(tmpl.AvailableFields) == 0 {
		t.Error("expected available fields to be stored")
	}

	preview, err := svc.Preview(ctx, owner.ID, tmpl.ID, ptrUUID(p.ID))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	want := "Dr. Lia Prado (Neurology) saw Marcos Teles, born 02/11/1985, on 08/01/2024 for Migraine. {{signature}}"
	if preview.Text != want {
		t.Errorf("unexpected preview text:\n got: %s\nwant: %s", preview.Text, want)
	}
	if len(preview.Unresolved) != 1 || preview.Unresolved[0] != "signature" {
		t.Errorf("expected signature unresolved, got %v", preview.Unresolved)
	}

	other := createTestAccount(t, ctx)
	if _, err := svc.Preview(ctx, other.ID, tmpl.ID, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected other owner to miss the template, got %v", err)
	}
}

func TestReportTemplateLetterhead(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	repo := report.NewRepoPG(globalPool)

	tmpl := &report.Template{OwnerID: owner.ID, Name: "Referral", Body: "Dear colleague"}
	if err := repo.Create(ctx, tmpl); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tmpl.LetterheadURL != "" {
		t.Errorf("expected no letterhead, got %q", tmpl.LetterheadURL)
	}

	updated, err := repo.SetLetterhead(ctx, owner.ID, tmpl.ID, "http://localhost:8000/files/abc")
	if err != nil {
		t.Fatalf("SetLetterhead: %v", err)
	}
	if updated.LetterheadURL != "http://localhost:8000/files/abc" {
		t.Errorf("unexpected letterhead %q", updated.LetterheadURL)
	}

	list, err := repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 1 || list[0].LetterheadURL == "" {
		t.Errorf("expected one template with letterhead, got %+v", list)
	}
}

func TestPostgresBlobStore(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	store := blobstore.NewPostgresStore(globalPool)

	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 32)
	meta, err := store.Put(ctx, blobstore.Metadata{OwnerID: owner.ID, FileName: "letterhead.png", Category: "letterhead"}, strings.NewReader(png))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if meta.ContentType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", meta.ContentType)
	}

	rc, got, err := store.Get(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(data, []byte(png)) {
		t.Error("stored content differs")
	}
	if got.Size != int64(len(png)) {
		t.Errorf("expected size %d, got %d", len(png), got.Size)
	}

	other := createTestAccount(t, ctx)
	if _, err := store.Stat(ctx, other.ID, meta.ID); !errors.Is(err, blobstore.ErrBlobNotFound) {
		t.Errorf("expected other owner to miss the blob, got %v", err)
	}
	if err := store.Delete(ctx, owner.ID, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Get(ctx, meta.ID); !errors.Is(err, blobstore.ErrBlobNotFound) {
		t.Errorf("expected deleted blob to be gone, got %v", err)
	}
}

func TestMeasuresAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	owner := createTestAccount(t, ctx)
	other := createTestAccount(t, ctx)
	createTestPatient(t, ctx, owner.ID, "Nina Prates")
	createTestPatient(t, ctx, owner.ID, "Otávio Lins")
	createTestPatient(t, ctx, other.ID, "Paula Reis")

	eval := reporting.NewPGEvaluator(globalPool)
	rows, err := eval.Evaluate(ctx, reporting.FindMeasure("patient-count"), owner.ID, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if total, _ := rows[0]["total"].(int64); total != 2 {
		t.Errorf("expected 2 patients for owner, got %v", rows[0]["total"])
	}
}
