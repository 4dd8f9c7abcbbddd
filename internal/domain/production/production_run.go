package production

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeProductionRun is the aggregate type name used on run events
const AggregateTypeProductionRun = "ProductionRun"

// RunStatus is the lifecycle state of a production run
type RunStatus string

const (
	RunStatusPlanned    RunStatus = "PLANNED"
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusOnHold     RunStatus = "ON_HOLD"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusCancelled  RunStatus = "CANCELLED"
)

// IsValid checks if the run status is known
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPlanned, RunStatusInProgress, RunStatusOnHold, RunStatusCompleted, RunStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCancelled
}

// StepStatus is the state of a single production step
type StepStatus string

const (
	StepStatusPending    StepStatus = "PENDING"
	StepStatusInProgress StepStatus = "IN_PROGRESS"
	StepStatusCompleted  StepStatus = "COMPLETED"
	StepStatusSkipped    StepStatus = "SKIPPED"
)

// IsFinished reports whether the step no longer blocks completion
func (s StepStatus) IsFinished() bool {
	return s == StepStatusCompleted || s == StepStatusSkipped
}

// ProductionStep is one stage of a production run
type ProductionStep struct {
	ID               uuid.UUID
	StepOrder        int
	Name             string
	Description      string
	Status           StepStatus
	EstimatedMinutes int
	ActualMinutes    *int
	StartedAt        *time.Time
	CompletedAt      *time.Time
	Notes            string
}

// StepTemplate describes a step to create on a new run
type StepTemplate struct {
	Name             string
	Description      string
	EstimatedMinutes int
}

// DefaultStepTemplates is used when a run is created without custom steps
func DefaultStepTemplates() []StepTemplate {
	return []StepTemplate{
		{Name: "Preparation", Description: "Weigh and stage ingredients", EstimatedMinutes: 15},
		{Name: "Mixing", Description: "Mix and knead", EstimatedMinutes: 20},
		{Name: "Proofing", Description: "Let the dough rise", EstimatedMinutes: 60},
		{Name: "Baking", Description: "Bake", EstimatedMinutes: 45},
		{Name: "Cooling", Description: "Cool on racks", EstimatedMinutes: 30},
		{Name: "Packaging", Description: "Pack and label", EstimatedMinutes: 10},
	}
}

// PendingStep identifies a step that still blocks completion
type PendingStep struct {
	ID        uuid.UUID  `json:"id"`
	StepOrder int        `json:"step_order"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
}

// ProductionRun is a single execution of a recipe
type ProductionRun struct {
	shared.TenantAggregateRoot
	RecipeID          uuid.UUID
	Name              string
	TargetQuantity    decimal.Decimal
	TargetUnit        string
	Status            RunStatus
	Steps             []ProductionStep
	FinalQuantity     *decimal.Decimal
	ActualCost        *decimal.Decimal
	FinishedProductID *uuid.UUID
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	Notes             string
}

// NewProductionRun creates a PLANNED run with the given steps, or the default
// bakery steps when none are given.
func NewProductionRun(tenantID uuid.UUID, recipe *Recipe, name string, target decimal.Decimal, steps []StepTemplate) (*ProductionRun, error) {
	if recipe == nil {
		return nil, shared.ErrRecipeNotFound
	}
	if !target.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("target quantity must be positive")
	}
	if name == "" {
		name = recipe.Name
	}
	if len(steps) == 0 {
		steps = DefaultStepTemplates()
	}

	run := &ProductionRun{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RecipeID:            recipe.ID,
		Name:                name,
		TargetQuantity:      target,
		TargetUnit:          recipe.YieldUnit,
		Status:              RunStatusPlanned,
		Steps:               make([]ProductionStep, 0, len(steps)),
	}
	for i, tpl := range steps {
		if tpl.Name == "" {
			return nil, shared.ErrInvalidInput.WithMessage("step name cannot be empty")
		}
		run.Steps = append(run.Steps, ProductionStep{
			ID:               uuid.New(),
			StepOrder:        i + 1,
			Name:             tpl.Name,
			Description:      tpl.Description,
			Status:           StepStatusPending,
			EstimatedMinutes: tpl.EstimatedMinutes,
		})
	}
	return run, nil
}

// IsCompleted reports whether the run already produced its finished product
func (r *ProductionRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// Step returns the step with the given id
func (r *ProductionRun) Step(stepID uuid.UUID) (*ProductionStep, error) {
	for i := range r.Steps {
		if r.Steps[i].ID == stepID {
			return &r.Steps[i], nil
		}
	}
	return nil, shared.ErrNotFound.WithMessage("production step not found")
}

// PendingSteps lists the steps that are neither completed nor skipped
func (r *ProductionRun) PendingSteps() []PendingStep {
	pending := make([]PendingStep, 0)
	for _, s := range r.Steps {
		if !s.Status.IsFinished() {
			pending = append(pending, PendingStep{ID: s.ID, StepOrder: s.StepOrder, Name: s.Name, Status: s.Status})
		}
	}
	return pending
}

// AllStepsFinished reports whether every step is COMPLETED or SKIPPED
func (r *ProductionRun) AllStepsFinished() bool {
	return len(r.PendingSteps()) == 0
}

func (r *ProductionRun) ensureActive() error {
	if r.Status.IsTerminal() {
		return shared.ErrInvalidState.WithMessage("production run is " + string(r.Status))
	}
	if r.Status == RunStatusOnHold {
		return shared.ErrInvalidState.WithMessage("production run is on hold")
	}
	return nil
}

func (r *ProductionRun) markStarted(at time.Time) {
	if r.Status == RunStatusPlanned {
		r.Status = RunStatusInProgress
		r.StartedAt = &at
	}
}

// StartStep moves a pending step to IN_PROGRESS; the first started step also
// starts the run.
func (r *ProductionRun) StartStep(stepID uuid.UUID, at time.Time) error {
	if err := r.ensureActive(); err != nil {
		return err
	}
	step, err := r.Step(stepID)
	if err != nil {
		return err
	}
	if step.Status != StepStatusPending {
		return shared.ErrInvalidState.WithMessage("only pending steps can be started")
	}
	step.Status = StepStatusInProgress
	step.StartedAt = &at
	r.markStarted(at)
	r.Touch()
	return nil
}

// CompleteStep finishes a step. actualMinutes defaults to the time since the
// step was started.
func (r *ProductionRun) CompleteStep(stepID uuid.UUID, actualMinutes *int, notes string, at time.Time) error {
	if err := r.ensureActive(); err != nil {
		return err
	}
	step, err := r.Step(stepID)
	if err != nil {
		return err
	}
	if step.Status.IsFinished() {
		return shared.ErrInvalidState.WithMessage("step is already " + string(step.Status))
	}
	if step.StartedAt == nil {
		step.StartedAt = &at
	}
	if actualMinutes == nil {
		elapsed := int(at.Sub(*step.StartedAt).Minutes())
		actualMinutes = &elapsed
	}
	step.Status = StepStatusCompleted
	step.ActualMinutes = actualMinutes
	step.CompletedAt = &at
	if notes != "" {
		step.Notes = notes
	}
	r.markStarted(at)
	r.Touch()
	return nil
}

// SkipStep marks a step as not needed for this run
func (r *ProductionRun) SkipStep(stepID uuid.UUID, notes string, at time.Time) error {
	if err := r.ensureActive(); err != nil {
		return err
	}
	step, err := r.Step(stepID)
	if err != nil {
		return err
	}
	if step.Status.IsFinished() {
		return shared.ErrInvalidState.WithMessage("step is already " + string(step.Status))
	}
	step.Status = StepStatusSkipped
	step.CompletedAt = &at
	step.Notes = notes
	r.markStarted(at)
	r.Touch()
	return nil
}

// Hold pauses an active run
func (r *ProductionRun) Hold(reason string) error {
	if r.Status != RunStatusPlanned && r.Status != RunStatusInProgress {
		return shared.ErrInvalidState.WithMessage("only planned or in-progress runs can be put on hold")
	}
	r.Status = RunStatusOnHold
	if reason != "" {
		r.Notes = reason
	}
	r.Touch()
	return nil
}

// Resume continues a run that was on hold
func (r *ProductionRun) Resume() error {
	if r.Status != RunStatusOnHold {
		return shared.ErrInvalidState.WithMessage("only runs on hold can be resumed")
	}
	if r.StartedAt != nil {
		r.Status = RunStatusInProgress
	} else {
		r.Status = RunStatusPlanned
	}
	r.Touch()
	return nil
}

// Complete transitions the run to COMPLETED. The caller has created the
// finished product referenced by finishedProductID.
func (r *ProductionRun) Complete(finalQuantity, actualCost decimal.Decimal, finishedProductID uuid.UUID, at time.Time) error {
	if r.Status.IsTerminal() {
		return shared.ErrInvalidState.WithMessage("production run is already " + string(r.Status))
	}
	if pending := r.PendingSteps(); len(pending) > 0 {
		return shared.ErrStepsPending.WithDetails(pending)
	}
	if !finalQuantity.IsPositive() {
		return shared.ErrInvalidQuantity.WithMessage("final quantity must be positive")
	}

	r.Status = RunStatusCompleted
	r.FinalQuantity = &finalQuantity
	r.ActualCost = &actualCost
	r.FinishedProductID = &finishedProductID
	r.CompletedAt = &at
	if r.StartedAt == nil {
		r.StartedAt = &at
	}
	r.Touch()
	r.Raise(NewProductionRunCompletedEvent(r))
	return nil
}

// Cancel moves any non-completed run to CANCELLED. It returns false when the
// run was already cancelled.
func (r *ProductionRun) Cancel(reason string, at time.Time) (bool, error) {
	switch r.Status {
	case RunStatusCompleted:
		return false, shared.ErrInvalidState.WithMessage("completed production runs cannot be cancelled")
	case RunStatusCancelled:
		return false, nil
	}
	r.Status = RunStatusCancelled
	r.CancelledAt = &at
	if reason != "" {
		r.Notes = reason
	}
	r.Touch()
	r.Raise(NewProductionRunCancelledEvent(r, reason))
	return true, nil
}
