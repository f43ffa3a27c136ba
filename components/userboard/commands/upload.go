package commands

import (
	"context"
	"errors"
	"io"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// UploadCSVInput carries the selected file. When Result is set it receives
// the upload outcome.
type UploadCSVInput struct {
	Filename string
	Content  io.Reader
	Result   *userboard.UploadResult
}

type uploadService interface {
	Upload(ctx context.Context, upload userboard.CSVUpload) (userboard.UploadResult, error)
}

// UploadCSVCommand wraps Store.Upload.
type UploadCSVCommand struct {
	service   uploadService
	telemetry recorder
}

// NewUploadCSVCommand builds the command.
func NewUploadCSVCommand(service uploadService, telemetry Telemetry) *UploadCSVCommand {
	return &UploadCSVCommand{service: service, telemetry: newRecorder(telemetry)}
}

var _ gocommand.Commander[UploadCSVInput] = (*UploadCSVCommand)(nil)

// Execute uploads the file.
func (c *UploadCSVCommand) Execute(ctx context.Context, msg UploadCSVInput) error {
	if c.service == nil {
		return errors.New("upload command requires service")
	}
	result, err := c.service.Upload(ctx, userboard.CSVUpload{Filename: msg.Filename, Content: msg.Content})
	if msg.Result != nil {
		*msg.Result = result
	}
	if err != nil {
		return err
	}
	c.telemetry.completed(ctx, "upload", map[string]any{
		"filename":  msg.Filename,
		"added":     result.AddedCount,
		"simulated": result.Simulated,
	})
	return nil
}
