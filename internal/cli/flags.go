package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
)

// amountFlag is a pflag.Value holding a decimal amount such as "1.5".
type amountFlag struct {
	value domain.Amount
}

func (f *amountFlag) String() string { return f.value.String() }
func (f *amountFlag) Type() string   { return "amount" }

func (f *amountFlag) Set(s string) error {
	a, err := domain.ParseAmount(s)
	if err != nil {
		return err
	}
	f.value = a
	return nil
}

var _ pflag.Value = (*amountFlag)(nil)

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid milestone index %q", s)
	}
	return i, nil
}

// milestoneSeparator splits the --milestone value "description|amount|due".
const milestoneSeparator = "|"

type milestoneEntry struct {
	description string
	amount      domain.Amount
	due         time.Time
}

// parseMilestone reads "description|amount|due" where due is YYYY-MM-DD
// (midnight UTC) or RFC 3339.
func parseMilestone(s string) (milestoneEntry, error) {
	parts := strings.Split(s, milestoneSeparator)
	if len(parts) != 3 {
		return milestoneEntry{}, fmt.Errorf("milestone %q: want description|amount|YYYY-MM-DD", s)
	}
	amount, err := domain.ParseAmount(parts[1])
	if err != nil {
		return milestoneEntry{}, fmt.Errorf("milestone %q: %w", s, err)
	}
	due, err := parseDate(strings.TrimSpace(parts[2]))
	if err != nil {
		return milestoneEntry{}, fmt.Errorf("milestone %q: %w", s, err)
	}
	return milestoneEntry{description: strings.TrimSpace(parts[0]), amount: amount, due: due}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

// createFlags collects "project create" input from flags or the form.
type createFlags struct {
	name        string
	description string
	sponsor     string
	milestones  []string
	interactive bool
}

func (f *createFlags) input() (service.CreateProjectInput, error) {
	in := service.CreateProjectInput{
		Name:        f.name,
		Description: f.description,
		Sponsor:     f.sponsor,
	}
	for _, raw := range f.milestones {
		m, err := parseMilestone(raw)
		if err != nil {
			return service.CreateProjectInput{}, err
		}
		in.MilestoneDescriptions = append(in.MilestoneDescriptions, m.description)
		in.MilestoneAmounts = append(in.MilestoneAmounts, m.amount)
		in.MilestoneDueDates = append(in.MilestoneDueDates, m.due)
	}
	return in, nil
}
