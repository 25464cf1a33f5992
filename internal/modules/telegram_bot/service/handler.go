package service

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"signal_tracker/internal/models"
	"signal_tracker/pkg/logger"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// 1) Посты в каналах-источниках
	if post := update.ChannelPost; post != nil {
		t.handleSourceMessage(ctx, post)
		return
	}

	// 2) Админ-команды
	if msg := update.Message; msg != nil {
		if msg.Chat.ID != t.cfg.Telegram.AdminChatID {
			return
		}
		if msg.IsCommand() {
			t.handleCommand(ctx, msg)
		}
		return
	}

	// 3) Остальное (edited_message и т.п.) игнорируем
}

func (t *Telegram) handleSourceMessage(ctx context.Context, msg *tgbotapi.Message) {
	if _, tracked := t.cfg.DestinationFor(msg.Chat.ID); !tracked {
		return
	}
	t.history.record(msg.Chat.ID, msg.MessageID, msg.Text)

	if _, err := t.tracker.HandleMessage(ctx, models.Incoming{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}); err != nil {
		logger.Error("telegram: handle message %d: %v", msg.MessageID, err)
	}
}

func (t *Telegram) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		t.reply(ctx, chatID, helpText)

	case "active":
		sigs, err := t.tracker.ListActive(ctx)
		if err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, formatSignalList("📈 Активные сигналы", sigs))

	case "completed":
		sigs, err := t.tracker.ListCompleted(ctx)
		if err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, formatSignalList("🏁 Закрытые сигналы", sigs))

	case "summary":
		period := models.Period(arg)
		switch period {
		case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
		case "":
			period = models.PeriodDaily
		default:
			t.reply(ctx, chatID, "Период: daily | weekly | monthly")
			return
		}
		rep, err := t.tracker.Summary(ctx, period)
		if err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, trackerSummary(rep))

	case "complete":
		if arg == "" {
			t.reply(ctx, chatID, "Нужен id: /complete <id>")
			return
		}
		if _, err := t.tracker.CompleteSignal(ctx, arg); err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, "✅ Сигнал "+arg+" закрыт как выполненный")

	case "stop":
		if arg == "" {
			t.reply(ctx, chatID, "Нужен id: /stop <id>")
			return
		}
		if _, err := t.tracker.StopSignal(ctx, arg); err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, "🛑 Сигнал "+arg+" остановлен")

	case "delete":
		if arg == "" {
			t.reply(ctx, chatID, "Нужен id: /delete <id>")
			return
		}
		if err := t.tracker.DeleteSignal(ctx, arg); err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, "🗑 Сигнал "+arg+" удалён")

	case "backfill":
		parts := strings.Fields(arg)
		if len(parts) == 0 {
			t.reply(ctx, chatID, "Нужен чат: /backfill <chat_id> [limit]")
			return
		}
		srcChat, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			t.reply(ctx, chatID, "Некорректный chat_id: "+parts[0])
			return
		}
		limit := t.cfg.BackfillLimit
		if len(parts) > 1 {
			if n, err := strconv.Atoi(parts[1]); err == nil && n > 0 {
				limit = n
			}
		}
		n, err := t.backfiller.Backfill(ctx, srcChat, limit)
		if err != nil {
			t.replyErr(ctx, chatID, err)
			return
		}
		t.reply(ctx, chatID, "🔄 Бэкафилл: сохранено сигналов: "+strconv.Itoa(n))

	case "status":
		t.handleStatus(ctx, chatID)

	default:
		// незнакомые команды молча пропускаем
	}
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	active, err := t.tracker.ListActive(ctx)
	if err != nil {
		t.replyErr(ctx, chatID, err)
		return
	}
	completed, err := t.tracker.ListCompleted(ctx)
	if err != nil {
		t.replyErr(ctx, chatID, err)
		return
	}
	t.reply(ctx, chatID, formatStatus(len(active), len(completed), t.evaluator.LastTick()))
}

func (t *Telegram) reply(ctx context.Context, chatID int64, text string) {
	if _, err := t.Send(ctx, chatID, text); err != nil {
		logger.Error("telegram: reply: %v", err)
	}
}

func (t *Telegram) replyErr(ctx context.Context, chatID int64, err error) {
	t.reply(ctx, chatID, "❗️ Ошибка: "+err.Error())
}

const helpText = "Я слежу за сигналами из каналов-источников.\n\n" +
	"/active — активные сигналы\n" +
	"/completed — закрытые сигналы\n" +
	"/summary [daily|weekly|monthly] — отчёт\n" +
	"/complete <id> — закрыть вручную\n" +
	"/stop <id> — остановить вручную\n" +
	"/delete <id> — удалить\n" +
	"/backfill <chat_id> [limit] — прогнать историю\n" +
	"/status — состояние трекера"
