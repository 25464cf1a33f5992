package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_tracker/internal/modules/config"
	trackersvc "signal_tracker/internal/modules/tracker/service"
	"signal_tracker/pkg/logger"
)

// Telegram — клиент бота: доставка уведомлений, приём постов из
// каналов-источников, админ-команды. Tracker и прочие подключаются
// через Attach после построения, чтобы не плодить циклы в DI.
type Telegram struct {
	bot *tgbot.BotAPI
	cfg *config.Config

	tracker    *trackersvc.Tracker
	backfiller *trackersvc.Backfiller
	evaluator  *trackersvc.Evaluator

	history *historyRing
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:     b,
		cfg:     cfg,
		history: newHistoryRing(cfg.HistoryDepth),
	}, nil
}

// Attach связывает бота с движком. Вызывается до Start.
func (t *Telegram) Attach(tracker *trackersvc.Tracker, backfiller *trackersvc.Backfiller, evaluator *trackersvc.Evaluator) {
	t.tracker = tracker
	t.backfiller = backfiller
	t.evaluator = evaluator
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// Deliver implement trackersvc.Deliverer.
func (t *Telegram) Deliver(ctx context.Context, chatID int64, text string) error {
	_, err := t.Send(ctx, chatID, text)
	return err
}

// Start ...
func (t *Telegram) Start(ctx context.Context) error {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	logger.Info("telegram: update loop started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
