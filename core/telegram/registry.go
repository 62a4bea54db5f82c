package telegram

import (
	"context"
	"sort"
	"strings"

	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/telegram/commands"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and menu actions keyed by reply-keyboard labels.
type Registry struct {
	commands     map[string]commands.Command
	actions      map[string]tele.HandlerFunc
	actionOrder  []string
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		actions:  make(map[string]tele.HandlerFunc),
	}
}

// RegisterCommand adds a new slash command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("cause", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// RegisterAction maps one or more reply-keyboard labels to a handler.
// Labels are matched case-sensitively after trimming whitespace.
func (r *Registry) RegisterAction(handler tele.HandlerFunc, labels ...string) {
	if r == nil || handler == nil || len(labels) == 0 {
		logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.action.skip",
			slog.String("cause", "invalid"),
		)
		return
	}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, exists := r.actions[label]; exists {
			logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "register.action.duplicate",
				slog.String("label", label),
			)
			continue
		}
		r.actions[label] = handler
		r.actionOrder = append(r.actionOrder, label)
	}
}

// LookupCommand searches for a command by name or its aliases and returns the canonical key with metadata if found.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// LookupAction returns the handler for a reply-keyboard label if registered.
func (r *Registry) LookupAction(text string) (tele.HandlerFunc, bool) {
	h, ok := r.actions[strings.TrimSpace(text)]
	return h, ok
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		// the Bot API wants command names without the slash
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// ListActions returns registered action labels in registration order (for diagnostics).
func (r *Registry) ListActions() []string {
	return append([]string(nil), r.actionOrder...)
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands sets the Telegram bot commands shown in the command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.TG.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
