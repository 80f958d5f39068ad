package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medipause/certserve/internal/pricing"
	"github.com/medipause/certserve/model"
)

// Controller is the wizard navigation state machine for one form session.
// It tracks the current step, the values entered so far, and the fields
// flagged by the last failed advance. Not safe for concurrent use; each
// session owns its controller.
type Controller struct {
	set     *StepSet
	current int // 1-based
	values  map[string]string
	flagged []string
}

// NewController starts a session on step 1 with no values.
func NewController(set *StepSet) *Controller {
	return &Controller{
		set:     set,
		current: 1,
		values:  make(map[string]string),
	}
}

// CurrentStep returns the 1-based position of the active step.
func (c *Controller) CurrentStep() int { return c.current }

// Step returns the active step's definition.
func (c *Controller) Step() StepDefinition { return c.set.Step(c.current) }

// Flagged returns the fields that blocked the last Advance, in step order.
func (c *Controller) Flagged() []string { return c.flagged }

// SetField records a field value. Setting a value never navigates; the price
// and the effective required set are derived from values on demand.
func (c *Controller) SetField(field, value string) {
	c.values[field] = value
}

// SetList records a multi-value field such as the symptom list.
func (c *Controller) SetList(field string, values []string) {
	c.values[field] = strings.Join(values, ",")
}

// Value returns the recorded value for a field.
func (c *Controller) Value(field string) string { return c.values[field] }

// List returns a multi-value field as a slice.
func (c *Controller) List(field string) []string {
	v := strings.TrimSpace(c.values[field])
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// Advance validates the active step and moves forward on success. On failure
// it flags the offending fields, stays put, and returns false. Advancing past
// the last step clamps to the last step.
func (c *Controller) Advance() bool {
	c.flagged = c.flagged[:0]
	for _, f := range c.Step().Fields {
		if c.fieldRequired(f) && strings.TrimSpace(c.values[f.Field]) == "" {
			c.flagged = append(c.flagged, f.Field)
		}
	}
	if len(c.flagged) > 0 {
		return false
	}
	if c.current < c.set.Count() {
		c.current++
	}
	return true
}

// Retreat moves one step back without validation. Values entered on the step
// being left are retained. Retreating from step 1 stays on step 1.
func (c *Controller) Retreat() {
	c.flagged = nil
	if c.current > 1 {
		c.current--
	}
}

// JumpTo moves directly to a previously visited step. Jumping forward past
// the current step is refused.
func (c *Controller) JumpTo(pos int) error {
	if pos < 1 || pos > c.current {
		return fmt.Errorf("wizard: cannot jump to step %d from step %d", pos, c.current)
	}
	c.flagged = nil
	c.current = pos
	return nil
}

// Options collects the option checkbox values entered so far.
func (c *Controller) Options() model.PricingOptions {
	return model.PricingOptions{
		LongLeave:   c.values["longLeave"] == "true",
		PastDate:    c.values["pastDate"] == "true",
		ComplexCase: c.values["complexCase"] == "true",
		Urgent:      c.values["urgentOption"] == "true",
		SSN:         c.values["ssnOption"] == "true",
	}
}

// dateRange parses the leave period from the entered values. It returns nil
// while either bound is absent or not yet a well-formed date; the wizard
// shows a duration-free price until both dates parse.
func (c *Controller) dateRange() *model.DateRange {
	start, err := time.Parse(model.DateFormat, strings.TrimSpace(c.values["startDate"]))
	if err != nil {
		return nil
	}
	end, err := time.Parse(model.DateFormat, strings.TrimSpace(c.values["endDate"]))
	if err != nil {
		return nil
	}
	return &model.DateRange{Start: start, End: end}
}

// PriceCents recomputes the displayed price from the current values.
func (c *Controller) PriceCents() int64 {
	return pricing.Price(c.Options(), c.dateRange())
}

// fieldRequired evaluates whether a field is required given the values
// entered so far. A field with dependencies is required only while every
// requiring dependency is satisfied; an unsatisfied dependency hides the
// field entirely.
func (c *Controller) fieldRequired(f FieldDefinition) bool {
	if len(f.DependsOn) == 0 {
		return f.Required
	}
	for _, dep := range f.DependsOn {
		if !c.dependencyMet(dep) {
			return false
		}
	}
	for _, dep := range f.DependsOn {
		if dep.Requires {
			return true
		}
	}
	return f.Required
}

// dependencyMet checks a dependency against the entered values. List-valued
// fields satisfy the dependency when any element matches.
func (c *Controller) dependencyMet(dep FieldDependency) bool {
	for _, v := range strings.Split(c.values[dep.Field], ",") {
		if strings.TrimSpace(v) == dep.Value {
			return true
		}
	}
	return false
}

// Freeze builds the immutable submission from the review step. Every content
// step must satisfy its effective required set; the price is computed one
// last time and fixed into the snapshot.
func (c *Controller) Freeze() (*model.Submission, error) {
	if !c.Step().Review {
		return nil, fmt.Errorf("wizard: freeze is only allowed on the review step")
	}
	for pos := 1; pos <= c.set.Count(); pos++ {
		for _, f := range c.set.Step(pos).Fields {
			if c.fieldRequired(f) && strings.TrimSpace(c.values[f.Field]) == "" {
				return nil, fmt.Errorf("wizard: required field %q is empty", f.Field)
			}
		}
	}

	rng := c.dateRange()
	if rng == nil {
		return nil, fmt.Errorf("wizard: leave period dates are not well formed")
	}
	price := pricing.Price(c.Options(), rng)

	intake := model.IntakeRequest{
		Firstname:       strings.TrimSpace(c.values["firstname"]),
		Lastname:        strings.TrimSpace(c.values["lastname"]),
		Email:           strings.TrimSpace(c.values["email"]),
		Phone:           strings.TrimSpace(c.values["phone"]),
		Birthdate:       strings.TrimSpace(c.values["birthdate"]),
		Address:         strings.TrimSpace(c.values["address"]),
		Profession:      strings.TrimSpace(c.values["profession"]),
		Symptoms:        c.List("symptoms"),
		OtherSymptoms:   strings.TrimSpace(c.values["otherSymptoms"]),
		SymptomDuration: strings.TrimSpace(c.values["symptomDuration"]),
		HealthCenter:    strings.TrimSpace(c.values["healthCenter"]),
		MedicalHistory:  strings.TrimSpace(c.values["medicalHistory"]),
		AdditionalNotes: strings.TrimSpace(c.values["additionalNotes"]),
		StartDate:       strings.TrimSpace(c.values["startDate"]),
		EndDate:         strings.TrimSpace(c.values["endDate"]),
		SSNNumber:       strings.TrimSpace(c.values["ssnNumber"]),
		FinalPrice:      pricing.FormatEuros(price),
	}
	opts := c.Options()
	intake.LongLeave = opts.LongLeave
	intake.PastDate = opts.PastDate
	intake.ComplexCase = opts.ComplexCase
	intake.Urgent = opts.Urgent
	intake.SSN = opts.SSN

	return &model.Submission{
		ID:         uuid.NewString(),
		Intake:     intake,
		Range:      rng,
		PriceCents: price,
		FrozenAt:   time.Now().UTC(),
	}, nil
}
