package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-userboard/components/userboard"
)

// StatsInput selects the ranking. A nil Expanded follows the store controls.
type StatsInput struct {
	Expanded *bool
}

type snapshotService interface {
	Snapshot() userboard.State
}

// StatsQuery ranks the age group statistics.
type StatsQuery struct {
	service snapshotService
}

// NewStatsQuery builds the query.
func NewStatsQuery(service snapshotService) *StatsQuery {
	return &StatsQuery{service: service}
}

var _ gocommand.Querier[StatsInput, userboard.StatsView] = (*StatsQuery)(nil)

// Query returns the ranked stats.
func (q *StatsQuery) Query(ctx context.Context, input StatsInput) (userboard.StatsView, error) {
	if err := ctx.Err(); err != nil {
		return userboard.StatsView{}, err
	}
	state := q.service.Snapshot()
	expanded := state.Controls.StatsExpanded
	if input.Expanded != nil {
		expanded = *input.Expanded
	}
	return userboard.RankStats(state.Stats, expanded), nil
}
