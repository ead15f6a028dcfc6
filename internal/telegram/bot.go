// Package telegram pushes accepted plans to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends plans and reports to a single chat.
type Notifier struct {
	api    sender
	chatID int64
	log    *zap.Logger
}

// NewNotifier authorizes the bot token.
func NewNotifier(token string, chatID int64, log *zap.Logger) (*Notifier, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))
	return newNotifier(bot, chatID, log), nil
}

func newNotifier(api sender, chatID int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{api: api, chatID: chatID, log: log}
}

// SendPlan posts the plan, then the shopping list, then the recipe cards.
// The recipe cards are model output and go out as plain text.
func (n *Notifier) SendPlan(ctx context.Context, res planner.Result) error {
	planText, shoppingListText := formatPlanMarkdownParts(res)

	if err := n.send(ctx, planText, true); err != nil {
		return err
	}
	if res.ShoppingList.Len() > 0 {
		if err := n.send(ctx, shoppingListText, true); err != nil {
			return err
		}
	}
	for _, part := range splitMessage(res.Tips, maxMessageLen) {
		if err := n.send(ctx, part, false); err != nil {
			return err
		}
	}
	n.log.Info("plan sent to telegram", zap.String("run_id", res.RunID), zap.Int64("chat_id", n.chatID))
	return nil
}

// SendMarkdown posts a Markdown message, such as the usage report.
func (n *Notifier) SendMarkdown(ctx context.Context, text string) error {
	return n.send(ctx, text, true)
}

func (n *Notifier) send(ctx context.Context, text string, markdown bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

var weekdaysFR = [...]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

func formatPlanMarkdownParts(res planner.Result) (string, string) {
	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Weekly Meal Plan* (%s → %s)\n\n",
		res.Start.Format(planner.DateLayout), res.End.Format(planner.DateLayout))
	if res.BestEffort {
		pb.WriteString("_Best effort: the coach did not approve this plan._\n\n")
	}

	for _, dp := range res.Plan {
		label := dp.Date
		if d, err := time.Parse(planner.DateLayout, dp.Date); err == nil {
			label = fmt.Sprintf("%s %s", weekdaysFR[d.Weekday()], d.Format("02/01"))
		}
		fmt.Fprintf(&pb, "*%s*\n", label)
		if dp.Midi != "" {
			fmt.Fprintf(&pb, "☀️ %s\n", dp.Midi)
		}
		fmt.Fprintf(&pb, "🌙 %s\n\n", dp.Soir)
	}

	return pb.String(), formatShoppingList(res.ShoppingList)
}

func formatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	for _, cat := range list.Categories() {
		fmt.Fprintf(&sb, "\n*%s*\n", cat)
		for _, item := range list[cat] {
			fmt.Fprintf(&sb, "• %s (%s)\n", item.Item, item.Quantity)
		}
	}
	return sb.String()
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
