package importer

import (
	"fmt"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
)

// Convert turns a validated schema into creation inputs, one per project, in
// file order. Call ValidateImportSchema first.
func Convert(schema *ImportSchema) ([]service.CreateProjectInput, error) {
	out := make([]service.CreateProjectInput, 0, len(schema.Projects))
	for i, p := range schema.Projects {
		in := service.CreateProjectInput{
			Name:        p.Name,
			Description: p.Description,
			Sponsor:     p.Sponsor,
		}
		for j, m := range p.Milestones {
			amount, err := domain.ParseAmount(m.Amount)
			if err != nil {
				return nil, fmt.Errorf("projects[%d].milestones[%d].amount: %w", i, j, err)
			}
			due, err := parseDueDate(m.DueDate)
			if err != nil {
				return nil, fmt.Errorf("projects[%d].milestones[%d].due_date: %w", i, j, err)
			}
			in.MilestoneDescriptions = append(in.MilestoneDescriptions, m.Description)
			in.MilestoneAmounts = append(in.MilestoneAmounts, amount)
			in.MilestoneDueDates = append(in.MilestoneDueDates, due)
		}
		out = append(out, in)
	}
	return out, nil
}
