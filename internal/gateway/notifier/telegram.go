package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TextNotifier 是引擎依赖的最小通知接口，隔离具体渠道实现。
type TextNotifier interface {
	SendText(text string) error
}

const (
	defaultAPIBase = "https://api.telegram.org"
	sendAttempts   = 3
	retryDelay     = 500 * time.Millisecond
)

// Telegram 把模拟结果摘要推送到指定群/频道。失败重试由调用方决定
// 是否旁路执行，这里只负责网络层的短重试。
type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string // 留空时使用官方地址
	Client   *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{BotToken: botToken, ChatID: chatID, Client: &http.Client{Timeout: 15 * time.Second}}
}

// SendText 以 Markdown 模式发送文本，非 2xx 与传输失败各重试两次。
func (t *Telegram) SendText(text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return fmt.Errorf("telegram bot_token/chat_id not configured")
	}
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken)

	payload, _ := json.Marshal(map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "Markdown",
	})

	var lastErr error
	for i := 0; i < sendAttempts; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * retryDelay)
		}
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := t.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("telegram status=%d", resp.StatusCode)
	}
	return lastErr
}
