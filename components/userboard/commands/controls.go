package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// SetFilterInput carries the raw filter form. Reset restores the defaults.
type SetFilterInput struct {
	Search string `json:"search"`
	AgeMin string `json:"age_min"`
	AgeMax string `json:"age_max"`
	Reset  bool   `json:"reset"`
}

// ToggleSortInput names the clicked column.
type ToggleSortInput struct {
	Key string `json:"key"`
}

// ToggleStatsInput flips the stats expansion.
type ToggleStatsInput struct{}

type controlsService interface {
	ApplyFilter(ctx context.Context, search, minValue, maxValue string) error
	ResetControls(ctx context.Context)
	ToggleSort(ctx context.Context, key userboard.SortKey)
	ToggleStatsExpanded(ctx context.Context)
}

// SetFilterCommand applies the filter form.
type SetFilterCommand struct {
	service controlsService
}

// NewSetFilterCommand builds the command.
func NewSetFilterCommand(service controlsService) *SetFilterCommand {
	return &SetFilterCommand{service: service}
}

var _ gocommand.Commander[SetFilterInput] = (*SetFilterCommand)(nil)

// Execute updates search and bounds.
func (c *SetFilterCommand) Execute(ctx context.Context, msg SetFilterInput) error {
	if c.service == nil {
		return errors.New("filter command requires service")
	}
	if msg.Reset {
		c.service.ResetControls(ctx)
		return nil
	}
	return c.service.ApplyFilter(ctx, msg.Search, msg.AgeMin, msg.AgeMax)
}

// ToggleSortCommand applies a column header click.
type ToggleSortCommand struct {
	service controlsService
}

// NewToggleSortCommand builds the command.
func NewToggleSortCommand(service controlsService) *ToggleSortCommand {
	return &ToggleSortCommand{service: service}
}

var _ gocommand.Commander[ToggleSortInput] = (*ToggleSortCommand)(nil)

// Execute toggles the sort for a known column.
func (c *ToggleSortCommand) Execute(ctx context.Context, msg ToggleSortInput) error {
	if c.service == nil {
		return errors.New("sort command requires service")
	}
	key, ok := userboard.ParseSortKey(msg.Key)
	if !ok {
		return fmt.Errorf("unknown sort column %q", msg.Key)
	}
	c.service.ToggleSort(ctx, key)
	return nil
}

// ToggleStatsCommand flips between the top five and all groups.
type ToggleStatsCommand struct {
	service controlsService
}

// NewToggleStatsCommand builds the command.
func NewToggleStatsCommand(service controlsService) *ToggleStatsCommand {
	return &ToggleStatsCommand{service: service}
}

var _ gocommand.Commander[ToggleStatsInput] = (*ToggleStatsCommand)(nil)

// Execute toggles expansion.
func (c *ToggleStatsCommand) Execute(ctx context.Context, _ ToggleStatsInput) error {
	if c.service == nil {
		return errors.New("stats command requires service")
	}
	c.service.ToggleStatsExpanded(ctx)
	return nil
}
