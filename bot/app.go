package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/earnify/paybot/core/config"
	"github.com/earnify/paybot/core/telegram"
	"github.com/earnify/paybot/core/telegram/commands"
	"github.com/earnify/paybot/session"
)

// App bundles the conversation handlers with their runtime wiring.
type App struct {
	Config   *coreconfig.Config
	Sessions *session.Store
	Handlers *Handlers
}

func NewApp(cfg *coreconfig.Config, store Store) *App {
	sessions := session.NewStore()
	return &App{
		Config:   cfg,
		Sessions: sessions,
		Handlers: NewHandlers(store, sessions, cfg.Channel),
	}
}

// Menu jumps straight to the main menu for logged-in chats and to the
// welcome screen otherwise.
func (a *App) Menu(c tele.Context) error {
	sess := a.Sessions.Get(c.Chat().ID)
	if !sess.Authenticated {
		return a.Handlers.Start(c)
	}
	return a.Handlers.observe(c, "menu.command", func(c tele.Context) error {
		return a.Handlers.toMainMenu(c, sess, "")
	})
}

// Registry builds the command registry exposed to Telegram clients.
func (a *App) Registry() *telegram.Registry {
	reg := telegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.Handlers.Start,
		Description: "Restart the conversation",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.Menu,
		Description: "Show the main menu",
		Hidden:      true,
	})
	reg.SetTextFallback(a.Handlers.OnText)
	return reg
}

// RunOptions assembles everything RunTelegram needs.
func (a *App) RunOptions() telegram.RunOptions {
	reg := a.Registry()

	routes := make([]telegram.Route, 0, 4)
	for name, cmd := range reg.Commands() {
		routes = append(routes, telegram.Route{Endpoint: name, Handler: cmd.Handler})
		for _, alias := range cmd.Aliases {
			routes = append(routes, telegram.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: cmd.Handler})
		}
	}
	routes = append(routes, telegram.Route{Endpoint: tele.OnText, Handler: reg.TextFallback()})

	return telegram.RunOptions{
		Config:      a.Config,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(a.Config, nil),
		Routes:      routes,
	}
}
