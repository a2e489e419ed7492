package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PPClient/model"
	"PPClient/tools/errs"

	"github.com/google/uuid"
)

// Client talks to the chat REST API. All methods map failures onto
// errs.ErrRequest carrying the HTTP status and any server-provided
// detail, so callers can log or surface a single error shape.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the shape of the server's exception handler payload.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errs.ErrRequest.WrapMsg("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.ErrRequest.WrapErr(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.ErrRequest.WrapMsg("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.ErrRequest.WrapMsg("decode %s %s: %v", method, path, err)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("Accept", "application/json")
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	detail := ""
	if json.Unmarshal(raw, &eb) == nil {
		if eb.Message != "" {
			detail = eb.Message
		} else if eb.Error != "" {
			detail = eb.Error
		}
	}
	if detail == "" && len(raw) > 0 {
		detail = string(raw)
	}
	return errs.ErrRequest.WrapMsg("%s %s: status %d: %s", method, path, resp.StatusCode, detail)
}

// Conversations lists the caller's conversations, already ordered by
// the server (most recently active first).
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation fetches a single directory entry.
func (c *Client) Conversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/conversations/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Messages fetches one history page, newest-first. The caller reverses
// Content into ascending order before installing it.
func (c *Client) Messages(ctx context.Context, conversationID int64, page, size int) (*model.MessagePage, error) {
	var out model.MessagePage
	path := fmt.Sprintf("/conversations/%d/messages?page=%d&size=%d", conversationID, page, size)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead posts a read receipt for the given message.
func (c *Client) MarkRead(ctx context.Context, conversationID, messageID int64) error {
	body := map[string]int64{"messageId": messageID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/read", conversationID), body, nil)
}

// CreateDirect opens (or returns) the one-on-one conversation with userID.
func (c *Client) CreateDirect(ctx context.Context, userID int64) (*model.Conversation, error) {
	var out model.Conversation
	body := map[string]int64{"userId": userID}
	if err := c.do(ctx, http.MethodPost, "/conversations/direct", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGroup creates a group conversation with the given members.
func (c *Client) CreateGroup(ctx context.Context, name string, memberIDs []int64) (*model.Conversation, error) {
	var out model.Conversation
	body := map[string]any{"name": name, "memberIds": memberIDs}
	if err := c.do(ctx, http.MethodPost, "/conversations/group", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMember adds a user to a group conversation.
func (c *Client) AddMember(ctx context.Context, conversationID, userID int64) error {
	body := map[string]int64{"userId": userID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/conversations/%d/members", conversationID), body, nil)
}

// ClearChat wipes the message history of a conversation server-side.
func (c *Client) ClearChat(ctx context.Context, conversationID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/messages/clear/%d", conversationID), nil, nil)
}

// SearchUsers finds users by name/email fragment.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	var out []model.User
	path := "/users/search?query=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadResult is the server's answer to a file upload.
type UploadResult struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// UploadFile streams a file as multipart form data. The mechanics are
// opaque to the sync core; only the returned URL and content type are
// used when sending the attachment message.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, errs.ErrRequest.WrapErr(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, errs.ErrRequest.WrapErr(err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.ErrRequest.WrapErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return nil, errs.ErrRequest.WrapErr(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.ErrRequest.WrapMsg("POST /files: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(http.MethodPost, "/files", resp)
	}
	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.ErrRequest.WrapMsg("decode POST /files: %v", err)
	}
	return &out, nil
}
