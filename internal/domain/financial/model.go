package financial

import (
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
)

// Revenue totals the appointments of a period.
type Revenue struct {
	Total        float64 `json:"total"`
	Insurance    float64 `json:"insurance"`
	Private      float64 `json:"private"`
	Appointments int     `json:"appointments"`
}

// CategoryTotal is the sum of one expense category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// Expenses totals the expenses of a period.
type Expenses struct {
	Total      float64         `json:"total"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// Summary is the monthly cash view: appointment revenue against expenses.
type Summary struct {
	Month    string        `json:"month"`
	From     dateonly.Date `json:"from"`
	To       dateonly.Date `json:"to"`
	Revenue  Revenue       `json:"revenue"`
	Expenses Expenses      `json:"expenses"`
	Net      float64       `json:"net"`
}

// Dashboard is the landing page overview.
type Dashboard struct {
	Today             dateonly.Date             `json:"today"`
	PatientCount      int                       `json:"patient_count"`
	AppointmentCount  int                       `json:"appointment_count"`
	TodayAppointments []*scheduling.Appointment `json:"today_appointments"`
	NextAppointment   *scheduling.Appointment   `json:"next_appointment,omitempty"`
}

// cents rounds an amount to two decimal places.
