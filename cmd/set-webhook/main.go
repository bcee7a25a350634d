package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	config "github.com/NordCoder/Tgfeed/internal/config/feed-api"
	"github.com/NordCoder/Tgfeed/internal/obs"
)

const webhookPath = "/telegram/webhook"

// set-webhook points the bot at <public_base_url>/telegram/webhook with the
// shared secret, accepting channel posts only.
func main() {
	cfgPath := flag.String("config", "config/feed-api.yaml", "path to yaml config (optional)")
	remove := flag.Bool("remove", false, "delete the webhook instead of setting it")
	drop := flag.Bool("drop-pending", false, "drop updates queued on Telegram's side")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("component", "set-webhook"))

	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		logger.Fatal("telegram.bot_token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{Token: cfg.Telegram.BotToken})
	if err != nil {
		logger.Fatal("bot init", zap.Error(err))
	}

	if *remove {
		if err := bot.RemoveWebhook(*drop); err != nil {
			logger.Fatal("remove webhook", zap.Error(err))
		}
		logger.Info("webhook removed")
		return
	}

	endpoint, err := webhookURL(cfg.Telegram.PublicBaseURL)
	if err != nil {
		logger.Fatal("public_base_url", zap.Error(err))
	}
	err = bot.SetWebhook(&tele.Webhook{
		Endpoint:       &tele.WebhookEndpoint{PublicURL: endpoint},
		SecretToken:    cfg.Telegram.WebhookSecret,
		AllowedUpdates: []string{"channel_post"},
		DropUpdates:    *drop,
	})
	if err != nil {
		logger.Fatal("set webhook", zap.Error(err))
	}
	logger.Info("webhook set", zap.String("url", endpoint), zap.String("bot", bot.Me.Username))
}

func webhookURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%q must be an absolute https url", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + webhookPath
	u.RawQuery, u.Fragment = "", ""
	return u.String(), nil
}
