package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLen                 = 100
	MaxDescriptionLen          = 1000
	MaxMilestoneDescriptionLen = 200
	MaxMilestones              = 20

	// MaxDueHorizon bounds how far after creation a milestone may be due.
	MaxDueHorizon = 365 * 24 * time.Hour
)

// SponsorRequiredProblem is reported when the sponsor is missing or the zero address.
const SponsorRequiredProblem = "valid sponsor address is required"

// MilestoneSpec describes one milestone in a creation request.
type MilestoneSpec struct {
	Description string
	Amount      Amount
	DueDate     time.Time
}

// NewProject is a validated-on-demand request to open a project.
type NewProject struct {
	Creator     Identity
	Sponsor     Identity
	Name        string
	Description string
	Milestones  []MilestoneSpec
}

// ZipMilestoneSpecs pairs parallel description/amount/due-date lists into specs.
// Transports that accept columnar input use it; a length mismatch is a validation error.
func ZipMilestoneSpecs(descriptions []string, amounts []Amount, dueDates []time.Time) ([]MilestoneSpec, error) {
	if len(descriptions) != len(amounts) || len(descriptions) != len(dueDates) {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf(
			"milestone arrays length mismatch (%d descriptions, %d amounts, %d due dates)",
			len(descriptions), len(amounts), len(dueDates))}}
	}
	specs := make([]MilestoneSpec, len(descriptions))
	for i := range descriptions {
		specs[i] = MilestoneSpec{Description: descriptions[i], Amount: amounts[i], DueDate: dueDates[i]}
	}
	return specs, nil
}

// Validate checks the request against creation rules relative to now and
// reports every problem at once.
func (n NewProject) Validate(now time.Time) error {
	v := &ValidationError{}

	name := strings.TrimSpace(n.Name)
	switch {
	case name == "":
		v.Add("project name is required")
	case utf8.RuneCountInString(n.Name) > MaxNameLen:
		v.Add(fmt.Sprintf("project name must be at most %d characters", MaxNameLen))
	}

	desc := strings.TrimSpace(n.Description)
	switch {
	case desc == "":
		v.Add("project description is required")
	case utf8.RuneCountInString(n.Description) > MaxDescriptionLen:
		v.Add(fmt.Sprintf("project description must be at most %d characters", MaxDescriptionLen))
	}

	if n.Creator.IsZero() {
		v.Add("valid creator address is required")
	}
	switch {
	case n.Sponsor.IsZero():
		v.Add(SponsorRequiredProblem)
	case n.Sponsor == n.Creator:
		v.Add("sponsor must be different from creator")
	}

	switch {
	case len(n.Milestones) == 0:
		v.Add("at least one milestone is required")
	case len(n.Milestones) > MaxMilestones:
		v.Add(fmt.Sprintf("at most %d milestones are allowed", MaxMilestones))
	default:
		for i, m := range n.Milestones {
			validateMilestoneSpec(v, i, m, now)
		}
		if _, ok := n.totalBudget(); !ok {
			v.Add("total budget overflows")
		}
	}

	return v.OrNil()
}

func validateMilestoneSpec(v *ValidationError, i int, m MilestoneSpec, now time.Time) {
	prefix := fmt.Sprintf("milestone %d:", i+1)

	switch {
	case strings.TrimSpace(m.Description) == "":
		v.Add(prefix + " description is required")
	case utf8.RuneCountInString(m.Description) > MaxMilestoneDescriptionLen:
		v.Add(fmt.Sprintf("%s description must be at most %d characters", prefix, MaxMilestoneDescriptionLen))
	}

	switch {
	case m.Amount <= 0:
		v.Add(prefix + " amount must be positive")
	case m.Amount > MaxMilestoneAmount:
		v.Add(fmt.Sprintf("%s amount cannot exceed %s", prefix, MaxMilestoneAmount))
	}

	switch {
	case m.DueDate.IsZero():
		v.Add(prefix + " due date is required")
	case !m.DueDate.After(now):
		v.Add(prefix + " due date must be in the future")
	case m.DueDate.Sub(now) > MaxDueHorizon:
		v.Add(prefix + " due date cannot be more than 1 year in the future")
	}
}

func (n NewProject) totalBudget() (Amount, bool) {
	amounts := make([]Amount, len(n.Milestones))
	for i, m := range n.Milestones {
		amounts[i] = m.Amount
	}
	return SumAmounts(amounts...)
}

// Build validates the request and returns the unsaved project. ID is assigned by the store.
func (n NewProject) Build(now time.Time) (*Project, error) {
	if err := n.Validate(now); err != nil {
		return nil, err
	}
	budget, _ := n.totalBudget()

	p := &Project{
		Name:        strings.TrimSpace(n.Name),
		Description: strings.TrimSpace(n.Description),
		Creator:     n.Creator,
		Sponsor:     n.Sponsor,
		TotalBudget: budget,
		Active:      true,
		CreatedAt:   now,
		Milestones:  make([]Milestone, len(n.Milestones)),
	}
	for i, m := range n.Milestones {
		p.Milestones[i] = Milestone{
			Index:       i,
			Description: strings.TrimSpace(m.Description),
			Amount:      m.Amount,
			DueDate:     m.DueDate.UTC(),
			State:       MilestonePending,
		}
	}
	return p, nil
}
