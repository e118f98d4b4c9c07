package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/tranche/internal/cli/formatter"
	"github.com/alexanderramin/tranche/internal/domain"
)

func trancheHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// runCreateForm fills the fields of f that flags left empty. Milestones are
// entered one per line in the --milestone format.
func runCreateForm(f *createFlags) error {
	milestones := strings.Join(f.milestones, "\n")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&f.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&f.description),
			huh.NewInput().
				Title("Sponsor address").
				Placeholder("0x…").
				Value(&f.sponsor).
				Validate(func(s string) error {
					_, err := domain.ParseIdentity(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Milestones").
				Description("One per line, in order: description|amount|YYYY-MM-DD").
				Value(&milestones).
				Validate(validateMilestoneLines),
		),
	).WithTheme(trancheHuhTheme())

	if err := form.Run(); err != nil {
		return err
	}
	f.milestones = milestoneLines(milestones)
	return nil
}

func milestoneLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func validateMilestoneLines(text string) error {
	lines := milestoneLines(text)
	if len(lines) == 0 {
		return errors.New("at least one milestone is required")
	}
	for _, line := range lines {
		if _, err := parseMilestone(line); err != nil {
			return err
		}
	}
	return nil
}
