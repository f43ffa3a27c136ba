package userboard

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

// ThemeDark is the chart theme used when the page is shown in dark mode.
const ThemeDark = types.ThemeChalk

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartRenderer turns a ranked stats view into a horizontal bar chart.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	title      string
	assetsHost string
}

// ChartOption customizes the renderer.
type ChartOption func(*ChartRenderer)

// WithChartCache injects a render cache. Nil disables caching.
func WithChartCache(cache RenderCache) ChartOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the default theme (Westeros otherwise).
func WithChartTheme(theme string) ChartOption {
	return func(r *ChartRenderer) {
		if theme != "" {
			r.theme = theme
		}
	}
}

// WithChartTitle overrides the chart title.
func WithChartTitle(title string) ChartOption {
	return func(r *ChartRenderer) {
		r.title = title
	}
}

// WithChartAssetsHost rewrites the host the ECharts script loads from.
func WithChartAssetsHost(host string) ChartOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer with the shared cache.
func NewChartRenderer(options ...ChartOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
		title: "Average age by group",
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ResolveTheme maps a page theme name to a chart theme.
func (r *ChartRenderer) ResolveTheme(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "dark":
		return ThemeDark
	case "light":
		return types.ThemeWesteros
	}
	if theme, ok := chartThemes[key]; ok {
		return theme
	}
	return r.theme
}

// chartThemes lists the themes bundled with go-echarts. Page themes outside
// this set fall back to the renderer default so they never reach the cache key.
var chartThemes = map[string]string{
	types.ThemeChalk:         types.ThemeChalk,
	types.ThemeEssos:         types.ThemeEssos,
	types.ThemeInfographic:   types.ThemeInfographic,
	types.ThemeMacarons:      types.ThemeMacarons,
	types.ThemePurplePassion: types.ThemePurplePassion,
	types.ThemeRoma:          types.ThemeRoma,
	types.ThemeRomantic:      types.ThemeRomantic,
	types.ThemeShine:         types.ThemeShine,
	types.ThemeVintage:       types.ThemeVintage,
	types.ThemeWalden:        types.ThemeWalden,
	types.ThemeWesteros:      types.ThemeWesteros,
	types.ThemeWonderland:    types.ThemeWonderland,
}

// Render returns the chart markup. An empty ranking renders nothing.
func (r *ChartRenderer) Render(view StatsView, theme string) (string, error) {
	if len(view.Entries) == 0 {
		return "", nil
	}
	theme = r.ResolveTheme(theme)
	render := func() (string, error) {
		return r.render(view, theme)
	}
	if r.cache == nil {
		return render()
	}
	key := fmt.Sprintf("ranking:%s:%t:%s", theme, view.Expanded, rankingHash(view))
	return r.cache.GetOrRender(key, render)
}

func (r *ChartRenderer) render(view StatsView, theme string) (string, error) {
	// Category axes draw bottom-up once reversed, so feed the ranking backwards
	// to keep the highest average on top.
	count := len(view.Entries)
	groups := make([]string, count)
	data := make([]opts.BarData, count)
	for i, entry := range view.Entries {
		j := count - 1 - i
		groups[j] = entry.Group
		data[j] = opts.BarData{
			Name:  entry.Group,
			Value: math.Round(entry.Avg*10) / 10,
		}
	}

	initOpts := opts.Initialization{
		Theme:  theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: r.title, Subtitle: rankingSubtitle(view)}),
		charts.WithInitializationOpts(initOpts),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetXAxis(groups)
	bar.AddSeries("Average age", data)
	bar.XYReversal()

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("userboard: render ranking chart: %w", err)
	}
	return buf.String(), nil
}

func rankingSubtitle(view StatsView) string {
	if view.CanExpand && !view.Expanded {
		return fmt.Sprintf("Top %d of %d groups", len(view.Entries), view.Total)
	}
	return fmt.Sprintf("%d groups", view.Total)
}
