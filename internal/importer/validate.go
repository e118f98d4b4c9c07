package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

// ValidateImportSchema checks the file's shape and formats. Business rules
// such as budget limits and due-date windows are left to project creation.
// Returns every problem found.
func ValidateImportSchema(schema *ImportSchema) []error {
	if len(schema.Projects) == 0 {
		return []error{fmt.Errorf("projects: at least one project is required")}
	}

	var errs []error
	for i := range schema.Projects {
		errs = append(errs, validateProject(fmt.Sprintf("projects[%d]", i), &schema.Projects[i])...)
	}
	return errs
}

func validateProject(path string, p *ProjectImport) []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fmt.Errorf("%s.name is required", path))
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, fmt.Errorf("%s.description is required", path))
	}
	if _, err := domain.ParseIdentity(p.Sponsor); err != nil {
		errs = append(errs, fmt.Errorf("%s.sponsor: %w", path, err))
	}
	if len(p.Milestones) == 0 {
		errs = append(errs, fmt.Errorf("%s.milestones: at least one milestone is required", path))
	}
	for i, m := range p.Milestones {
		mp := fmt.Sprintf("%s.milestones[%d]", path, i)
		if strings.TrimSpace(m.Description) == "" {
			errs = append(errs, fmt.Errorf("%s.description is required", mp))
		}
		if _, err := domain.ParseAmount(m.Amount); err != nil {
			errs = append(errs, fmt.Errorf("%s.amount: %w", mp, err))
		}
		if _, err := parseDueDate(m.DueDate); err != nil {
			errs = append(errs, fmt.Errorf("%s.due_date: %w", mp, err))
		}
	}
	return errs
}

// parseDueDate accepts YYYY-MM-DD (midnight UTC) or RFC 3339.
func parseDueDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("due date is required")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q (expected YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}
