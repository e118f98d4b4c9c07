package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow     = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	testCreator = Identity("0x1111111111111111111111111111111111111111")
	testSponsor = Identity("0x2222222222222222222222222222222222222222")
)

func fourMilestoneRequest() NewProject {
	return NewProject{
		Creator:     testCreator,
		Sponsor:     testSponsor,
		Name:        "Blockchain Development Project",
		Description: "Building a DeFi platform",
		Milestones: []MilestoneSpec{
			{Description: "Project Setup and Planning", Amount: MustParseAmount("1.0"), DueDate: testNow.AddDate(0, 0, 30)},
			{Description: "Smart Contract Development", Amount: MustParseAmount("2.0"), DueDate: testNow.AddDate(0, 0, 60)},
			{Description: "Frontend Development", Amount: MustParseAmount("1.5"), DueDate: testNow.AddDate(0, 0, 90)},
			{Description: "Testing and Deployment", Amount: MustParseAmount("0.5"), DueDate: testNow.AddDate(0, 0, 120)},
		},
	}
}

func TestBuild_ComputesBudget(t *testing.T) {
	p, err := fourMilestoneRequest().Build(testNow)
	require.NoError(t, err)
	assert.Equal(t, 5*Unit, p.TotalBudget)
	assert.True(t, p.Active)
	assert.Equal(t, 0, p.CurrentMilestone)
	assert.Equal(t, testNow, p.CreatedAt)
	require.Len(t, p.Milestones, 4)
	for i, m := range p.Milestones {
		assert.Equal(t, i, m.Index)
		assert.Equal(t, MilestonePending, m.State)
	}
	require.NoError(t, p.CheckInvariants())
}

func TestBuild_BudgetEqualsSumForAnySize(t *testing.T) {
	for n := 1; n <= MaxMilestones; n++ {
		req := fourMilestoneRequest()
		req.Milestones = nil
		var want Amount
		for i := 0; i < n; i++ {
			amt := Amount(i+1) * MustParseAmount("0.125")
			want += amt
			req.Milestones = append(req.Milestones, MilestoneSpec{
				Description: fmt.Sprintf("step %d", i),
				Amount:      amt,
				DueDate:     testNow.Add(time.Duration(i+1) * time.Hour),
			})
		}
		p, err := req.Build(testNow)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, want, p.TotalBudget, "n=%d", n)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	req := NewProject{
		Creator: testCreator,
		Sponsor: testCreator,
		Milestones: []MilestoneSpec{
			{Description: "", Amount: 0, DueDate: testNow.Add(-time.Hour)},
		},
	}
	err := req.Validate(testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, "project name is required")
	assert.Contains(t, verr.Problems, "project description is required")
	assert.Contains(t, verr.Problems, "sponsor must be different from creator")
	assert.Contains(t, verr.Problems, "milestone 1: description is required")
	assert.Contains(t, verr.Problems, "milestone 1: amount must be positive")
	assert.Contains(t, verr.Problems, "milestone 1: due date must be in the future")
}

func TestValidate_Rules(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*NewProject)
		problem string
	}{
		{"no milestones", func(n *NewProject) { n.Milestones = nil }, "at least one milestone is required"},
		{"too many milestones", func(n *NewProject) {
			for len(n.Milestones) <= MaxMilestones {
				n.Milestones = append(n.Milestones, n.Milestones[0])
			}
		}, "at most 20 milestones are allowed"},
		{"zero sponsor", func(n *NewProject) { n.Sponsor = ZeroIdentity }, "valid sponsor address is required"},
		{"missing sponsor", func(n *NewProject) { n.Sponsor = "" }, "valid sponsor address is required"},
		{"amount cap", func(n *NewProject) { n.Milestones[0].Amount = MaxMilestoneAmount + 1 }, "milestone 1: amount cannot exceed 1000"},
		{"due too far", func(n *NewProject) { n.Milestones[1].DueDate = testNow.Add(MaxDueHorizon + time.Hour) }, "milestone 2: due date cannot be more than 1 year in the future"},
		{"due now", func(n *NewProject) { n.Milestones[2].DueDate = testNow }, "milestone 3: due date must be in the future"},
		{"long name", func(n *NewProject) { n.Name = string(make([]byte, MaxNameLen+1)) + "x" }, "project name must be at most 100 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := fourMilestoneRequest()
			tc.mutate(&req)
			err := req.Validate(testNow)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Problems, tc.problem)
		})
	}
}

func TestZipMilestoneSpecs_LengthMismatch(t *testing.T) {
	_, err := ZipMilestoneSpecs([]string{"a", "b"}, []Amount{Unit}, []time.Time{testNow, testNow})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "length mismatch")

	specs, err := ZipMilestoneSpecs([]string{"a"}, []Amount{Unit}, []time.Time{testNow})
	require.NoError(t, err)
	assert.Equal(t, []MilestoneSpec{{Description: "a", Amount: Unit, DueDate: testNow}}, specs)
}

func TestEscrowBalance(t *testing.T) {
	p := &Project{TotalBudget: 5 * Unit, TotalDeposited: 3 * Unit, TotalReleased: Unit, TotalRefunded: Unit / 2}
	assert.Equal(t, MustParseAmount("1.5"), p.EscrowBalance())
	assert.Equal(t, 2*Unit, p.RemainingBudget())
}

func TestCheckInvariants_DetectsCorruption(t *testing.T) {
	p, err := fourMilestoneRequest().Build(testNow)
	require.NoError(t, err)

	bad := p.Clone()
	bad.TotalReleased = Unit
	assert.Error(t, bad.CheckInvariants(), "released above deposited")

	bad = p.Clone()
	bad.Milestones[2].State = MilestoneCompleted
	assert.Error(t, bad.CheckInvariants(), "completion ahead of cursor")

	bad = p.Clone()
	bad.CurrentMilestone = 1
	assert.Error(t, bad.CheckInvariants(), "cursor ahead of paid milestones")
}

func TestClone_IsDeep(t *testing.T) {
	p, err := fourMilestoneRequest().Build(testNow)
	require.NoError(t, err)
	c := p.Clone()
	c.Milestones[0].State = MilestoneCompleted
	c.Close(testNow)
	assert.Equal(t, MilestonePending, p.Milestones[0].State)
	assert.True(t, p.Active)
	assert.Nil(t, p.ClosedAt)
}

func TestClose_OnlyOnce(t *testing.T) {
	p := &Project{Active: true}
	p.Close(testNow)
	assert.False(t, p.Active)
	require.NotNil(t, p.ClosedAt)

	later := testNow.Add(time.Hour)
	p.Close(later)
	assert.Equal(t, testNow, *p.ClosedAt, "second close must not move ClosedAt")
	assert.ErrorIs(t, p.RequireActive(), ErrInactiveProject)
}

func TestMilestoneAt_OutOfRange(t *testing.T) {
	p, err := fourMilestoneRequest().Build(testNow)
	require.NoError(t, err)
	_, err = p.MilestoneAt(4)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.MilestoneAt(-1)
	assert.ErrorIs(t, err, ErrValidation)
	m, err := p.MilestoneAt(3)
	require.NoError(t, err)
	assert.Equal(t, "Testing and Deployment", m.Description)
}

func TestIsOverdue_InformationalOnly(t *testing.T) {
	m := Milestone{State: MilestonePending, DueDate: testNow.Add(-time.Hour)}
	assert.True(t, m.IsOverdue(testNow))

	m.State = MilestoneCompleted
	assert.False(t, m.IsOverdue(testNow), "completed milestones are never overdue")

	m = Milestone{State: MilestonePending, DueDate: testNow.Add(time.Hour)}
	assert.False(t, m.IsOverdue(testNow))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOutOfOrder, KindOf(fmt.Errorf("complete: %w", ErrOutOfOrder)))
	assert.Equal(t, KindValidation, KindOf(&ValidationError{Problems: []string{"x"}}))
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "project.created", Event{Type: EventProjectCreated}.RoutingKey())
	assert.Equal(t, "project.completed", Event{Type: EventProjectCompleted}.RoutingKey())
	assert.Equal(t, "project.funds_deposited", Event{Type: EventFundsDeposited}.RoutingKey())
	assert.Equal(t, "project.milestone_approved", Event{Type: EventMilestoneApproved}.RoutingKey())
}
