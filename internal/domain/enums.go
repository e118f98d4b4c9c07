package domain

type MilestoneState string

const (
	MilestonePending      MilestoneState = "pending"
	MilestoneCompleted    MilestoneState = "completed"
	MilestoneApprovedPaid MilestoneState = "approved_paid"
)

// ValidMilestoneStates is the canonical set of accepted milestone state strings.
var ValidMilestoneStates = map[string]bool{
	"pending": true, "completed": true, "approved_paid": true,
}

type Role string

const (
	RoleNone    Role = "none"
	RoleCreator Role = "creator"
	RoleSponsor Role = "sponsor"
)

type EventType string

const (
	EventProjectCreated     EventType = "ProjectCreated"
	EventFundsDeposited     EventType = "FundsDeposited"
	EventMilestoneCompleted EventType = "MilestoneCompleted"
	EventMilestoneApproved  EventType = "MilestoneApproved"
	EventFundsReleased      EventType = "FundsReleased"
	EventProjectCompleted   EventType = "ProjectCompleted"
	EventFundsRefunded      EventType = "FundsRefunded"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)
