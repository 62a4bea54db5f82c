package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/earnify/paybot/core/config"
	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller picks the update source from the normalized run mode. Normalize
// guarantees cfg.Telegram.RunMode is canonical, so anything that is not
// webhook long-polls.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: LongPollTimeout(cfg)}
}

// LongPollTimeout returns the configured getUpdates timeout with the default
// applied. The HTTP client budget is derived from it, so both stay in step.
func LongPollTimeout(cfg *coreconfig.Config) time.Duration {
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		return time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	}
	return defaultLongPollTimeout
}
