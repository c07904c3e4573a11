package chatclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response from the chat API.
type APIError struct {
	Status    int
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api %d %s: %s", e.Status, e.Type, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Client calls the chat REST endpoints.
type Client struct {
	http    *resty.Client
	baseURL string
	token   string
}

// NewClient creates a Resty-backed client. baseURL is the server root, for
// example http://localhost:8190.
func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetAuthToken(token).
			SetTimeout(15 * time.Second),
		baseURL: baseURL,
		token:   token,
	}
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token.
func (c *Client) Token() string {
	return c.token
}

type myConversation struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
}

// MyConversation returns the caller's conversation and history, creating the
// conversation on first contact.
func (c *Client) MyConversation(ctx context.Context) (*Conversation, []Message, error) {
	var out myConversation
	if err := c.do(ctx, http.MethodGet, "/v1/chat/conversation", &out); err != nil {
		return nil, nil, err
	}
	return out.Conversation, out.Messages, nil
}

// ListConversations returns the admin list, most recently active first.
func (c *Client) ListConversations(ctx context.Context) ([]Summary, error) {
	var out []Summary
	if err := c.do(ctx, http.MethodGet, "/v1/chat/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConversationMessages returns the full history of a conversation (admin only).
func (c *Client) ConversationMessages(ctx context.Context, id uint) ([]Message, error) {
	var out []Message
	if err := c.do(ctx, http.MethodGet, "/v1/chat/conversations/"+strconv.FormatUint(uint64(id), 10)+"/messages", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseConversation closes a conversation (admin only).
func (c *Client) CloseConversation(ctx context.Context, id uint) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodPatch, "/v1/chat/conversations/"+strconv.FormatUint(uint64(id), 10)+"/close", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, result any) error {
	var envelope errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&envelope).
		Execute(method, path)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	if envelope.Error != nil {
		apiErr = envelope.Error
		apiErr.Status = resp.StatusCode()
	}
	if apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
	}
	return apiErr
}
