package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// MeasureDefinition is a named, owner-scoped SQL aggregate. Every query
// takes $1 = owner id, $2 = from date, $3 = to date. Either date may be NULL
// to leave that side of the range open.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"-"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

var rangeParams = []string{"from", "to"}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "patient-count",
		Name:        "Patient Count",
		Description: "Patients registered in the period, and the overall total",
		SQL: `SELECT
    COUNT(*) AS total,
    COUNT(*) FILTER (WHERE ($2::date IS NULL OR created_at::date >= $2) AND ($3::date IS NULL OR created_at::date <= $3)) AS registered_in_period
FROM patients WHERE owner_id = $1`,
		Parameters: rangeParams,
	},
	{
		ID:          "appointments-by-care-type",
		Name:        "Appointments by Care Type",
		Description: "Number of appointments and their total amount grouped by care type",
		SQL: `SELECT care_type, COUNT(*) AS total, COALESCE(SUM(amount), 0)::float8 AS amount
FROM appointments
WHERE owner_id = $1 AND ($2::date IS NULL OR date >= $2) AND ($3::date IS NULL OR date <= $3)
GROUP BY care_type ORDER BY total DESC, care_type`,
		Parameters: rangeParams,
	},
	{
		ID:          "revenue-by-patient-category",
		Name:        "Revenue by Patient Category",
		Description: "Appointment revenue split between insurance and private patients",
		SQL: `SELECT patient_category, COUNT(*) AS appointments, COALESCE(SUM(amount), 0)::float8 AS revenue
FROM appointments
WHERE owner_id = $1 AND ($2::date IS NULL OR date >= $2) AND ($3::date IS NULL OR date <= $3)
GROUP BY patient_category ORDER BY patient_category`,
		Parameters: rangeParams,
	},
	{
		ID:          "expenses-by-category",
		Name:        "Expenses by Category",
		Description: "Expense totals grouped by category",
		SQL: `SELECT category, COUNT(*) AS entries, COALESCE(SUM(amount), 0)::float8 AS total
FROM expenses
WHERE owner_id = $1 AND ($2::date IS NULL OR date >= $2) AND ($3::date IS NULL OR date <= $3)
GROUP BY category ORDER BY total DESC, category`,
		Parameters: rangeParams,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Evaluator runs a measure for one owner.
type Evaluator interface {
	Evaluate(ctx context.Context, m *MeasureDefinition, ownerID uuid.UUID, from, to *time.Time) ([]map[string]interface{}, error)
}

// PGEvaluator runs measures against PostgreSQL.
type PGEvaluator struct {
	q db.Querier
}

func NewPGEvaluator(q db.Querier) *PGEvaluator {
	return &PGEvaluator{q: q}
}

// Evaluate returns each result row as a column-name keyed map.
func (e *PGEvaluator) Evaluate(ctx context.Context, m *MeasureDefinition, ownerID uuid.UUID, from, to *time.Time) ([]map[string]interface{}, error) {
	rows, err := db.Conn(ctx, e.q).Query(ctx, m.SQL, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	eval Evaluator
	now  func() time.Time
}

func NewHandler(eval Evaluator) *Handler {
	return &Handler{eval: eval, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports")
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure runs a measure for the authenticated owner. Optional
// from/to query parameters (YYYY-MM-DD) bound the date range.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	ownerID, err := auth.OwnerID(c)
	if err != nil {
		return err
	}

	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	from, to, params, err := parseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	results, err := h.eval.Evaluate(c.Request().Context(), measure, ownerID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "measure evaluation failed").SetInternal(err)
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: h.now().UTC(),
		Results:     results,
		Parameters:  params,
	})
}

func parseRange(fromStr, toStr string) (*time.Time, *time.Time, map[string]string, error) {
	params := map[string]string{}
	parse := func(name, v string) (*time.Time, error) {
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD format", name)
		}
		params[name] = v
		return &t, nil
	}

	from, err := parse("from", fromStr)
	if err != nil {
		return nil, nil, nil, err
	}
	to, err := parse("to", toStr)
	if err != nil {
		return nil, nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, nil, fmt.Errorf("to must not be before from")
	}
	return from, to, params, nil
}
