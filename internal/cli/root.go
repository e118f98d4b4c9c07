// Package cli is the tranche command line: project, milestone and account
// operations against the local store, plus the HTTP server and outbox tools.
package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/config"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/repository"
	"github.com/alexanderramin/tranche/internal/service"
)

// App holds everything CLI commands use.
type App struct {
	Projects service.ProjectService
	Accounts service.AccountService
	Outbox   repository.OutboxRepo
	Config   config.Config
	Logger   *zap.Logger
	Metrics  http.Handler

	// Publisher opens the outbox publisher; the returned func closes it.
	Publisher  func() (events.Publisher, func(), error)
	Dispatcher func(events.Publisher) *events.Dispatcher

	// DefaultIdentity is the caller when --as is not given.
	DefaultIdentity string
	IsInteractive   func() bool
	Now             func() time.Time

	identity string
}

// NewRootCmd creates the top-level "tranche" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tranche",
		Short:         "Milestone-gated escrow for sponsored projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var as string
	root.PersistentFlags().StringVar(&as, "as", app.DefaultIdentity, "caller address (defaults to $TRANCHE_IDENTITY)")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		app.identity = as
	}

	root.AddCommand(
		newProjectCmd(app),
		newMilestoneCmd(app),
		newAccountCmd(app),
		newOutboxCmd(app),
		newServeCmd(app),
		newTokenCmd(app),
	)
	return root
}

func (a *App) caller() (domain.Identity, error) {
	if a.identity == "" {
		return "", errors.New("caller address required: pass --as or set TRANCHE_IDENTITY")
	}
	id, err := domain.ParseIdentity(a.identity)
	if err != nil {
		return "", fmt.Errorf("--as: %w", err)
	}
	return id, nil
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
