package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

const telegramAPI = "https://api.telegram.org/bot"

// Notifier posts daily rollup summaries to a Telegram chat. A nil
// Notifier is valid and does nothing, so callers don't have to guard on
// whether the bot is configured.
type Notifier struct {
	token  string
	chatID int64
	logger *slog.Logger
	client *http.Client
}

func New(token string, chatID int64, logger *slog.Logger) *Notifier {
	if token == "" || chatID == 0 {
		return nil
	}
	return &Notifier{
		token:  token,
		chatID: chatID,
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// DailyRollup sends a summary message for a freshly created rollup.
func (n *Notifier) DailyRollup(ctx context.Context, r *store.DailyRollup) {
	if n == nil {
		return
	}
	msg := formatRollup(r)
	if err := n.sendMessage(ctx, msg); err != nil {
		n.logger.Error("telegram notify failed", "day", r.Day.Format("2006-01-02"), "error", err)
	}
}

func formatRollup(r *store.DailyRollup) string {
	return fmt.Sprintf(
		"📊 <b>Daily summary %s</b>\n\n"+
			"Avg volume: $%s\n"+
			"Price: %s → %s (H %s / L %s)\n"+
			"Tokens sold: %s\n"+
			"Total raised: %s\n"+
			"New holders: %s\n"+
			"New participants: %s\n"+
			"Snapshots: %d",
		r.Day.Format("2006-01-02"),
		formatNum(r.AvgVolume),
		formatNum(r.OpenPrice), formatNum(r.ClosePrice),
		formatNum(r.HighPrice), formatNum(r.LowPrice),
		formatNum(r.TokensSoldChange),
		formatNum(r.TotalRaisedChange),
		formatInt(r.HoldersChange),
		formatInt(r.ParticipantsChange),
		r.SnapshotCount,
	)
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":    n.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST",
		telegramAPI+n.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, errResp.Description)
	}
	return nil
}
