package report

// Field is one value a template body may reference as {{name}}.
type Field struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Description string `json:"description"`
	fallback    string
}

const (
	FieldPatientName         = "patient_name"
	FieldBirthDate           = "birth_date"
	FieldChiefComplaint      = "chief_complaint"
	FieldDiagnosis           = "diagnosis"
	FieldAssessment          = "assessment"
	FieldAppointmentDates    = "appointment_dates"
	FieldEvolutionDates      = "evolution_dates"
	FieldEvolutionNotes      = "evolution_notes"
	FieldProfessional        = "professional"
	FieldSpecialization      = "specialization"
	FieldCouncilRegistration = "council_registration"
)

const (
	noAppointments = "No appointments recorded"
	noEvolutions   = "No evolutions recorded"
)

var catalogue = []Field{
	{FieldPatientName, "patients", "Patient name", "PATIENT NAME"},
	{FieldBirthDate, "patients", "Patient birth date", "BIRTH DATE"},
	{FieldChiefComplaint, "clinical_records", "Chief complaint", "CHIEF COMPLAINT"},
	{FieldDiagnosis, "clinical_records", "Diagnosis", "DIAGNOSIS"},
	{FieldAssessment, "clinical_records", "Assessment and treatment", "ASSESSMENT"},
	{FieldAppointmentDates, "appointments", "Appointment dates", noAppointments},
	{FieldEvolutionDates, "evolutions", "Evolution dates", noEvolutions},
	{FieldEvolutionNotes, "evolutions", "Evolution notes", noEvolutions},
	{FieldProfessional, "profiles", "Professional name", "PROFESSIONAL"},
	{FieldSpecialization, "profiles", "Specialization", "SPECIALIZATION"},
	{FieldCouncilRegistration, "profiles", "Council registration", "COUNCIL REGISTRATION"},
}

// Fields returns the catalogue of substitutable fields.
func Fields() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// FieldNames returns the names of every catalogue field.
func FieldNames() []string {
	names := make([]string, len(catalogue))
	for i, f := range catalogue {
		names[i] = f.Name
	}
	return names
}
