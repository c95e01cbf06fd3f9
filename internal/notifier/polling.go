package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received; a non-empty
// reply is sent back to the chat.
type CommandHandler func(ctx context.Context, command string) string

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// command returns the trimmed text of a message sent from chatID.
func (u update) command(chatID string) (string, bool) {
	if u.Message == nil || strconv.FormatInt(u.Message.Chat.ID, 10) != chatID {
		return "", false
	}
	text := strings.TrimSpace(u.Message.Text)
	return text, text != ""
}

// StartPolling long-polls for commands from the configured chat until ctx is
// cancelled. Messages from other chats are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: pollTimeout + 5*time.Second}
	offset := 0
	for ctx.Err() == nil {
		updates, err := t.updates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] telegram polling: %v", err)
			sleep(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			text, ok := u.command(t.ChatID)
			if !ok {
				continue
			}
			log.Printf("[INFO] received command: %s", text)
			if reply := handler(ctx, text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) updates(ctx context.Context, client *http.Client, offset int) ([]update, error) {
	u := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, int(pollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool     `json:"ok"`
		Description string   `json:"description"`
		Result      []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, body.Description)
	}
	return body.Result, nil
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
