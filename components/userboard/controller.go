package userboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	defaultTemplate = "userboard"
	defaultTitle    = "User Dashboard"
	// DefaultBasePath is where the dashboard routes mount by default.
	DefaultBasePath = "/userboard"
)

var errMissingRenderer = errors.New("userboard: renderer not configured")

// ControllerOptions wires the controller.
type ControllerOptions struct {
	Store    *Store
	Renderer Renderer
	Chart    *ChartRenderer
	Template string
	Title    string
	BasePath string
}

// Controller builds page data from the store and renders it.
type Controller struct {
	store    *Store
	renderer Renderer
	chart    *ChartRenderer
	template string
	title    string
	basePath string
}

// NewController wires the store into a controller.
func NewController(opts ControllerOptions) *Controller {
	c := &Controller{
		store:    opts.Store,
		renderer: opts.Renderer,
		chart:    opts.Chart,
		template: opts.Template,
		title:    opts.Title,
		basePath: strings.TrimRight(opts.BasePath, "/"),
	}
	if c.template == "" {
		c.template = defaultTemplate
	}
	if c.title == "" {
		c.title = defaultTitle
	}
	if c.basePath == "" {
		c.basePath = DefaultBasePath
	}
	if c.chart == nil {
		c.chart = NewChartRenderer()
	}
	return c
}

// Store exposes the backing store to transports.
func (c *Controller) Store() *Store {
	return c.store
}

// BasePath is the mount point used for form actions.
func (c *Controller) BasePath() string {
	return c.basePath
}

// View returns the current view model, consuming the pending notice.
func (c *Controller) View() ViewModel {
	if c.store == nil {
		return BuildView(State{Controls: DefaultViewControls()})
	}
	view := c.store.View()
	view.Notice = c.store.TakeNotice()
	return view
}

// PageData returns the template context for one page render.
func (c *Controller) PageData(ctx context.Context, theme string) (map[string]any, error) {
	view := c.View()
	chartHTML, err := c.chart.Render(view.Stats, theme)
	if err != nil {
		return nil, err
	}

	users := make([]map[string]any, 0, len(view.Users))
	for _, u := range view.Users {
		users = append(users, map[string]any{
			"name": u.Name,
			"age":  u.Age,
			"path": url.PathEscape(u.Name),
		})
	}
	bars := make([]map[string]any, 0, len(view.Stats.Entries))
	for _, entry := range view.Stats.Entries {
		bars = append(bars, map[string]any{
			"group": entry.Group,
			"avg":   fmt.Sprintf("%.1f", entry.Avg),
			"width": fmt.Sprintf("%.1f", entry.Width),
		})
	}

	return map[string]any{
		"title":          c.title,
		"base":           c.basePath,
		"theme":          strings.ToLower(strings.TrimSpace(theme)),
		"loading":        view.Loading,
		"demo_mode":      view.DemoMode,
		"advisory":       view.Advisory,
		"notice":         view.Notice.Message,
		"notice_kind":    string(view.Notice.Kind),
		"users":          users,
		"shown":          view.Shown,
		"total":          view.Total,
		"search":         view.Controls.SearchTerm,
		"age_min":        view.AgeMin,
		"age_max":        view.AgeMax,
		"sort_name":      view.SortIndicator(SortName),
		"sort_age":       view.SortIndicator(SortAge),
		"form_name":      view.Form.Name,
		"form_age":       view.Form.Age,
		"upload_status":  string(view.Upload.Status),
		"upload_message": view.UploadMessage,
		"chart_html":     chartHTML,
		"stats":          bars,
		"stats_total":    view.Stats.Total,
		"stats_expanded": view.Stats.Expanded,
		"stats_can_more": view.Stats.CanExpand,
	}, nil
}

// RenderPage renders the dashboard template into out.
func (c *Controller) RenderPage(ctx context.Context, theme string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	data, err := c.PageData(ctx, theme)
	if err != nil {
		return err
	}
	if _, err := c.renderer.Render(c.template, data, out); err != nil {
		return fmt.Errorf("userboard: render page: %w", err)
	}
	return nil
}
