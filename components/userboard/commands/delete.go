package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// DeleteUserInput names the user to delete. Confirmed carries the answer the
// transport already collected; Confirmer, when set, is asked instead.
type DeleteUserInput struct {
	Name      string              `json:"name"`
	Confirmed bool                `json:"confirmed"`
	Confirmer userboard.Confirmer `json:"-"`
}

type deleteService interface {
	Delete(ctx context.Context, name string, confirm userboard.Confirmer) error
}

// DeleteUserCommand wraps Store.Delete.
type DeleteUserCommand struct {
	service   deleteService
	telemetry recorder
}

// NewDeleteUserCommand builds the command.
func NewDeleteUserCommand(service deleteService, telemetry Telemetry) *DeleteUserCommand {
	return &DeleteUserCommand{service: service, telemetry: newRecorder(telemetry)}
}

var _ gocommand.Commander[DeleteUserInput] = (*DeleteUserCommand)(nil)

// Execute deletes the user once confirmed.
func (c *DeleteUserCommand) Execute(ctx context.Context, msg DeleteUserInput) error {
	if c.service == nil {
		return errors.New("delete command requires service")
	}
	confirm := msg.Confirmer
	if confirm == nil {
		confirmed := msg.Confirmed
		confirm = userboard.ConfirmFunc(func(context.Context, string) bool { return confirmed })
	}
	if err := c.service.Delete(ctx, msg.Name, confirm); err != nil {
		return err
	}
	c.telemetry.completed(ctx, "delete", map[string]any{"name": msg.Name})
	return nil
}
