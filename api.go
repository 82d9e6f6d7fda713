package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kir-gadjello/ikoi/chat"
)

// User-facing fallback texts for the remote inference call. Failures always
// become a normal assistant message in the log, never a crash.
const (
	msgRateLimited  = "⏰ Too many requests. Try again in a little while!"
	msgServerError  = "🔥 The server is having trouble. It's being looked at!"
	msgBadRequest   = "❌ That message couldn't be processed. Check it and try again!"
	msgConnectivity = "⚠️ Connection trouble. Try again!"
	msgNetwork      = "🌐 Can't reach the assistant. Check your connection!"
	msgIncomplete   = "🤖 The assistant's response was incomplete. Try asking a different way!"
	msgTooShort     = "🤔 Hmm, I didn't quite get that. Could you explain in more detail or put it differently?"
)

// minReplyLength is the shortest reply passed through verbatim; anything
// shorter is replaced by the "didn't understand" fallback.
const minReplyLength = 10

// AssistantClient is the stateless request/response exchange with the remote
// inference endpoint.
type AssistantClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAssistantClient(baseURL, apiKey string) *AssistantClient {
	return &AssistantClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Ask sends text to the assistant and returns the message to append to the
// log. Transport and protocol failures come back as assistant-authored error
// messages (IsError set); a too-short reply is substituted with a fallback.
func (c *AssistantClient) Ask(ctx context.Context, text string) chat.Message {
	reply, err := c.ask(ctx, text)
	if err != nil {
		msg := chat.NewMessage(chat.AuthorAssistant, err.Error())
		msg.IsError = true
		return msg
	}
	if len([]rune(reply)) < minReplyLength {
		return chat.NewMessage(chat.AuthorAssistant, msgTooShort)
	}
	return chat.NewMessage(chat.AuthorAssistant, reply)
}

// ask performs the POST exchange. Returned errors carry the user-facing text
// directly.
func (c *AssistantClient) ask(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{Text: text})
	if err != nil {
		return "", errors.New(msgConnectivity)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewBuffer(body))
	if err != nil {
		return "", errors.New(msgConnectivity)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.New(msgNetwork)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", errors.New(msgRateLimited)
	case resp.StatusCode >= 500:
		return "", errors.New(msgServerError)
	case resp.StatusCode == http.StatusBadRequest:
		return "", errors.New(msgBadRequest)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", errors.New(msgConnectivity)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Reply == "" {
		return "", errors.New(msgIncomplete)
	}
	return out.Reply, nil
}

// Ping reports whether the endpoint answers at all; used by the doctor
// subcommand.
func (c *AssistantClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
