package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/components/userboard/commands"
)

// Executor is the intent surface transports dispatch into.
type Executor interface {
	Create(ctx context.Context, input commands.CreateUserInput) error
	Delete(ctx context.Context, input commands.DeleteUserInput) error
	Upload(ctx context.Context, input commands.UploadCSVInput) error
	Refresh(ctx context.Context, input commands.RefreshInput) error
	Filter(ctx context.Context, input commands.SetFilterInput) error
	Sort(ctx context.Context, input commands.ToggleSortInput) error
	ToggleStats(ctx context.Context, input commands.ToggleStatsInput) error
}

// CommandExecutor routes intents to go-command commanders.
type CommandExecutor struct {
	CreateCmd      gocommand.Commander[commands.CreateUserInput]
	DeleteCmd      gocommand.Commander[commands.DeleteUserInput]
	UploadCmd      gocommand.Commander[commands.UploadCSVInput]
	RefreshCmd     gocommand.Commander[commands.RefreshInput]
	FilterCmd      gocommand.Commander[commands.SetFilterInput]
	SortCmd        gocommand.Commander[commands.ToggleSortInput]
	ToggleStatsCmd gocommand.Commander[commands.ToggleStatsInput]
}

var _ Executor = (*CommandExecutor)(nil)

// NewCommandExecutor wires every command against the store.
func NewCommandExecutor(store *userboard.Store, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		CreateCmd:      commands.NewCreateUserCommand(store, telemetry),
		DeleteCmd:      commands.NewDeleteUserCommand(store, telemetry),
		UploadCmd:      commands.NewUploadCSVCommand(store, telemetry),
		RefreshCmd:     commands.NewRefreshCommand(store, telemetry),
		FilterCmd:      commands.NewSetFilterCommand(store),
		SortCmd:        commands.NewToggleSortCommand(store),
		ToggleStatsCmd: commands.NewToggleStatsCommand(store),
	}
}

func (e *CommandExecutor) Create(ctx context.Context, input commands.CreateUserInput) error {
	return execute(ctx, e.CreateCmd, input, "create")
}

func (e *CommandExecutor) Delete(ctx context.Context, input commands.DeleteUserInput) error {
	return execute(ctx, e.DeleteCmd, input, "delete")
}

func (e *CommandExecutor) Upload(ctx context.Context, input commands.UploadCSVInput) error {
	return execute(ctx, e.UploadCmd, input, "upload")
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshInput) error {
	return execute(ctx, e.RefreshCmd, input, "refresh")
}

func (e *CommandExecutor) Filter(ctx context.Context, input commands.SetFilterInput) error {
	return execute(ctx, e.FilterCmd, input, "filter")
}

func (e *CommandExecutor) Sort(ctx context.Context, input commands.ToggleSortInput) error {
	return execute(ctx, e.SortCmd, input, "sort")
}

func (e *CommandExecutor) ToggleStats(ctx context.Context, input commands.ToggleStatsInput) error {
	return execute(ctx, e.ToggleStatsCmd, input, "stats")
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], input T, name string) error {
	if cmd == nil {
		return errors.New("httpapi: " + name + " command not configured")
	}
	return cmd.Execute(ctx, input)
}
