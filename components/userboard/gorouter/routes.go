package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/components/userboard/commands"
	"github.com/goliatone/go-userboard/components/userboard/httpapi"
)

// Config wires go-router with the userboard controller, API, and hooks.
type Config[T any] struct {
	Router     router.Router[T]
	Controller *userboard.Controller
	API        httpapi.Executor
	Broadcast  *userboard.BroadcastHook
	BasePath   string
	Routes     RouteConfig
}

// RouteConfig customizes the relative paths used for userboard endpoints.
type RouteConfig struct {
	Page       string
	State      string
	Refresh    string
	Users      string
	DeleteUser string
	Upload     string
	Sort       string
	Filter     string
	Stats      string
	APIUsers   string
	APIUser    string
	APIRefresh string
	WebSocket  string
}

// Register mounts userboard routes (HTML, form actions, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = cfg.Controller.BasePath()
	}

	group := cfg.Router.Group(base)
	page := pageResponder(cfg.Controller)

	group.Get(routes.Page, router.WrapHandler(page))

	group.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		store := cfg.Controller.Store()
		if store == nil {
			return respondError(ctx, http.StatusServiceUnavailable, errors.New("store not configured"))
		}
		return ctx.JSON(http.StatusOK, store.View())
	}))

	if cfg.API != nil {
		registerForms(group, cfg.API, page, routes)
		registerAPI(group, cfg.API, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

// pageResponder renders the dashboard. Form handlers reuse it so the
// response always reflects the state after the intent.
func pageResponder(controller *userboard.Controller) func(router.Context) error {
	return func(ctx router.Context) error {
		var buf bytes.Buffer
		if err := controller.RenderPage(ctx.Context(), ctx.Query("theme"), &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}
}

// Form intents report failures through the store notice, so their errors are
// not returned to the router.
func registerForms[T any](r router.Router[T], api httpapi.Executor, page func(router.Context) error, routes RouteConfig) {
	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		_ = api.Refresh(ctx.Context(), commands.RefreshInput{})
		return page(ctx)
	}))

	r.Post(routes.Users, router.WrapHandler(func(ctx router.Context) error {
		_ = api.Create(ctx.Context(), commands.CreateUserInput{
			Name: ctx.FormValue("name"),
			Age:  ctx.FormValue("age"),
		})
		return page(ctx)
	}))

	r.Post(routes.DeleteUser, router.WrapHandler(func(ctx router.Context) error {
		_ = api.Delete(ctx.Context(), commands.DeleteUserInput{
			Name:      unescapeParam(ctx.Param("name")),
			Confirmed: httpapi.IsConfirmed(ctx.FormValue("confirm")),
		})
		return page(ctx)
	}))

	r.Post(routes.Upload, router.WrapHandler(func(ctx router.Context) error {
		input := commands.UploadCSVInput{}
		// A missing file part is reported by the store as "no file selected".
		if header, err := ctx.FormFile("file"); err == nil && header.Filename != "" {
			file, err := header.Open()
			if err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			defer file.Close()
			input.Filename = header.Filename
			input.Content = file
		}
		_ = api.Upload(ctx.Context(), input)
		return page(ctx)
	}))

	r.Post(routes.Sort, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Sort(ctx.Context(), commands.ToggleSortInput{Key: ctx.Param("key")}); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return page(ctx)
	}))

	r.Post(routes.Filter, router.WrapHandler(func(ctx router.Context) error {
		_ = api.Filter(ctx.Context(), commands.SetFilterInput{
			Search: ctx.FormValue("search"),
			AgeMin: ctx.FormValue("age_min"),
			AgeMax: ctx.FormValue("age_max"),
			Reset:  ctx.FormValue("reset") != "",
		})
		return page(ctx)
	}))

	r.Post(routes.Stats, router.WrapHandler(func(ctx router.Context) error {
		_ = api.ToggleStats(ctx.Context(), commands.ToggleStatsInput{})
		return page(ctx)
	}))
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.APIUsers, router.WrapHandler(func(ctx router.Context) error {
		var payload httpapi.UserPayload
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.Create(ctx.Context(), payload.Input()); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	r.Delete(routes.APIUser, router.WrapHandler(func(ctx router.Context) error {
		name := unescapeParam(ctx.Param("name"))
		if name == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("user name is required"))
		}
		input := commands.DeleteUserInput{
			Name:      name,
			Confirmed: httpapi.IsConfirmed(ctx.Query("confirm")),
		}
		if err := api.Delete(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}))

	r.Post(routes.APIRefresh, router.WrapHandler(func(ctx router.Context) error {
		if err := api.Refresh(ctx.Context(), commands.RefreshInput{}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *userboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func unescapeParam(value string) string {
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if strings.TrimSpace(*field) == "" {
			*field = value
		}
	}
	set(&routes.Page, "/")
	set(&routes.State, "/_state")
	set(&routes.Refresh, "/refresh")
	set(&routes.Users, "/users")
	set(&routes.DeleteUser, "/users/:name/delete")
	set(&routes.Upload, "/users/upload")
	set(&routes.Sort, "/controls/sort/:key")
	set(&routes.Filter, "/controls/filter")
	set(&routes.Stats, "/controls/stats")
	set(&routes.APIUsers, "/api/users")
	set(&routes.APIUser, "/api/users/:name")
	set(&routes.APIRefresh, "/api/refresh")
	set(&routes.WebSocket, "/ws")
	return routes
}
