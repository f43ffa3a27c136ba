package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshInput requests a full reload of users and stats.
type RefreshInput struct{}

type refreshService interface {
	RefreshAll(ctx context.Context) error
}

// RefreshCommand wraps Store.RefreshAll.
type RefreshCommand struct {
	service   refreshService
	telemetry recorder
}

// NewRefreshCommand creates the command.
func NewRefreshCommand(service refreshService, telemetry Telemetry) *RefreshCommand {
	return &RefreshCommand{service: service, telemetry: newRecorder(telemetry)}
}

var _ gocommand.Commander[RefreshInput] = (*RefreshCommand)(nil)

// Execute reloads the store.
func (c *RefreshCommand) Execute(ctx context.Context, _ RefreshInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if err := c.service.RefreshAll(ctx); err != nil {
		return err
	}
	c.telemetry.completed(ctx, "refresh", nil)
	return nil
}
