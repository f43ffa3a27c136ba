package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// ViewInput requests the current view model.
type ViewInput struct{}

type viewService interface {
	View() userboard.ViewModel
}

// ViewQuery returns the filtered, sorted and ranked view of the store.
type ViewQuery struct {
	service viewService
}

// NewViewQuery builds the query.
func NewViewQuery(service viewService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, userboard.ViewModel] = (*ViewQuery)(nil)

// Query derives the view. It does not consume the pending notice.
func (q *ViewQuery) Query(ctx context.Context, _ ViewInput) (userboard.ViewModel, error) {
	if err := ctx.Err(); err != nil {
		return userboard.ViewModel{}, err
	}
	return q.service.View(), nil
}
