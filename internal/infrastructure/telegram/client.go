package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	sharedConfig "helpbot/internal/shared/config"
)

// Client is a hand-rolled Telegram Bot API client covering the calls the
// support bot needs. Ticket channels are forum topics inside the staff
// supergroup.
type Client struct {
	config      sharedConfig.TelegramConfig
	httpClient  *http.Client
	baseURL     string
	botUsername string
}

func NewClient(config sharedConfig.TelegramConfig) *Client {
	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: fmt.Sprintf("https://api.telegram.org/bot%s", config.BotToken),
	}
	if config.BotToken != "" {
		_ = c.fetchBotUsername()
	}
	return c
}

// SetWebhook registers the webhook URL, with the secret token when configured.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	body := map[string]any{
		"url": webhookURL,
	}
	if c.config.WebhookSecret != "" {
		body["secret_token"] = c.config.WebhookSecret
	}
	return c.call(ctx, "setWebhook", body, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", nil, nil)
}

// GetUpdates retrieves updates via long polling. The context cancels the
// request for graceful shutdown.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	body := map[string]any{
		"timeout": timeout,
	}
	if offset > 0 {
		body["offset"] = offset
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	// Long polling needs a client timeout beyond the poll timeout.
	client := &http.Client{
		Timeout: time.Duration(timeout+10) * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/getUpdates", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool     `json:"ok"`
		Result      []Update `json:"result"`
		Description string   `json:"description,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API error: %s", result.Description)
	}

	return result.Result, nil
}

// SendMessage sends an HTML-formatted message, splitting text that exceeds
// the platform limit. The keyboard, if any, rides on the last chunk.
func (c *Client) SendMessage(ctx context.Context, chatID int64, threadID int64, text string, keyboard *InlineKeyboardMarkup) error {
	chunks := splitMessage(text, maxMessageLength)
	for i, chunk := range chunks {
		body := map[string]any{
			"chat_id":    chatID,
			"text":       chunk,
			"parse_mode": "HTML",
		}
		if threadID > 0 {
			body["message_thread_id"] = threadID
		}
		if keyboard != nil && i == len(chunks)-1 {
			body["reply_markup"] = keyboard
		}
		if err := c.call(ctx, "sendMessage", body, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, keyboard *InlineKeyboardMarkup) error {
	body := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		body["reply_markup"] = keyboard
	}
	return c.call(ctx, "editMessageText", body, nil)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	body := map[string]any{
		"callback_query_id": callbackQueryID,
	}
	if text != "" {
		body["text"] = text
	}
	if showAlert {
		body["show_alert"] = true
	}
	return c.call(ctx, "answerCallbackQuery", body, nil)
}

// CreateForumTopic opens a topic in chatID and returns its thread ID.
func (c *Client) CreateForumTopic(ctx context.Context, chatID int64, name string) (int64, error) {
	body := map[string]any{
		"chat_id": chatID,
		"name":    name,
	}
	var topic struct {
		MessageThreadID int64 `json:"message_thread_id"`
	}
	if err := c.call(ctx, "createForumTopic", body, &topic); err != nil {
		return 0, err
	}
	return topic.MessageThreadID, nil
}

func (c *Client) DeleteForumTopic(ctx context.Context, chatID, threadID int64) error {
	return c.call(ctx, "deleteForumTopic", map[string]any{
		"chat_id":           chatID,
		"message_thread_id": threadID,
	}, nil)
}

// CloseForumTopic locks a topic. Only chat admins can post in a closed topic,
// which is what staff-only visibility means here.
func (c *Client) CloseForumTopic(ctx context.Context, chatID, threadID int64) error {
	return c.call(ctx, "closeForumTopic", map[string]any{
		"chat_id":           chatID,
		"message_thread_id": threadID,
	}, nil)
}

func (c *Client) ReopenForumTopic(ctx context.Context, chatID, threadID int64) error {
	return c.call(ctx, "reopenForumTopic", map[string]any{
		"chat_id":           chatID,
		"message_thread_id": threadID,
	}, nil)
}

// ChatMember is one entry of a getChatAdministrators response.
type ChatMember struct {
	User   *User  `json:"user"`
	Status string `json:"status"`
}

func (c *Client) GetChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error) {
	var members []ChatMember
	err := c.call(ctx, "getChatAdministrators", map[string]any{
		"chat_id": chatID,
	}, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SendDocument uploads a file to a chat and returns the resulting message ID.
func (c *Client) SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) (int64, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return 0, fmt.Errorf("failed to write form field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return 0, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return 0, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return 0, fmt.Errorf("failed to write document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendDocument", &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
		Description string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return 0, fmt.Errorf("telegram API error: %s", result.Description)
	}

	return result.Result.MessageID, nil
}

func (c *Client) GetBotUsername() string {
	return c.botUsername
}

func (c *Client) fetchBotUsername() error {
	var me struct {
		Username string `json:"username"`
	}
	if err := c.call(context.Background(), "getMe", nil, &me); err != nil {
		return err
	}
	c.botUsername = me.Username
	return nil
}

// call issues a Bot API method and, when out is non-nil, decodes the result
// payload into it.
func (c *Client) call(ctx context.Context, method string, body map[string]any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result,omitempty"`
		Description string          `json:"description,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	if out != nil && len(result.Result) > 0 {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return nil
}

// Update is one inbound event from getUpdates or the webhook.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// CallbackQuery is an inline-keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type Message struct {
	MessageID       int64       `json:"message_id"`
	MessageThreadID int64       `json:"message_thread_id,omitempty"`
	From            *User       `json:"from,omitempty"`
	Chat            *Chat       `json:"chat"`
	Date            int64       `json:"date"`
	Text            string      `json:"text,omitempty"`
	Document        *Document   `json:"document,omitempty"`
	Photo           []PhotoSize `json:"photo,omitempty"`
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
}

// InlineKeyboardButton is one callback button.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}
