package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// CreateUserInput is the create form as submitted.
type CreateUserInput struct {
	Name string `json:"name"`
	Age  string `json:"age"`
}

type createService interface {
	Create(ctx context.Context, form userboard.CreateForm) error
}

// CreateUserCommand wraps Store.Create.
type CreateUserCommand struct {
	service   createService
	telemetry recorder
}

// NewCreateUserCommand builds the command.
func NewCreateUserCommand(service createService, telemetry Telemetry) *CreateUserCommand {
	return &CreateUserCommand{service: service, telemetry: newRecorder(telemetry)}
}

var _ gocommand.Commander[CreateUserInput] = (*CreateUserCommand)(nil)

// Execute submits the form.
func (c *CreateUserCommand) Execute(ctx context.Context, msg CreateUserInput) error {
	if c.service == nil {
		return errors.New("create command requires service")
	}
	if err := c.service.Create(ctx, userboard.CreateForm{Name: msg.Name, Age: msg.Age}); err != nil {
		return err
	}
	c.telemetry.completed(ctx, "create", map[string]any{"name": msg.Name})
	return nil
}
