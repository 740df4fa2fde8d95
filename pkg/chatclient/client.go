// Package chatclient is a Go client for the blackbox HTTP and websocket API.
//
// Client wraps the REST surface behind a cookie jar so the bb_token session
// cookie set by Login is replayed on every call. Session (see session.go)
// builds a live conversation view on top of it.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/pkg/storage"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds a single REST call
const DefaultTimeout = 15 * time.Second

// ErrNotLoggedIn is returned by DialEvents before a successful Login
var ErrNotLoggedIn = errors.New("chatclient: not logged in")

// APIError is an {ok:false} response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatclient: %d %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of err when it is an APIError, else 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to one server with one session cookie
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
	cookieName string
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is kept when set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.httpClient.Jar
		}
		c.httpClient = hc
	}
}

// WithCookieName overrides the session cookie name (default bb_token)
func WithCookieName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// New creates a Client for baseURL, e.g. http://localhost:8080
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("chatclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("chatclient: unsupported scheme %q", u.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
		dialer:     websocket.DefaultDialer,
		cookieName: "bb_token",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the common {ok, error} part of every response
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a successful body into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil || env.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Login authenticates and stores the session cookie in the jar
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/login", nil, domain.LoginRequest{
		Username: username,
		Password: password,
	}, nil)
}

// Logout clears the session cookie
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

// Me returns the caller's profile, or nil without a valid session
func (c *Client) Me(ctx context.Context) (*domain.ProfileResponse, error) {
	var out struct {
		User *domain.ProfileResponse `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Contacts lists accepted contacts
func (c *Client) Contacts(ctx context.Context) ([]*domain.ContactResponse, error) {
	var out struct {
		Contacts []*domain.ContactResponse `json:"contacts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/contacts", nil, nil, &out)
	return out.Contacts, err
}

// RequestContact sends a contact request by public id, raw id or username
func (c *Client) RequestContact(ctx context.Context, target string) error {
	return c.do(ctx, http.MethodPost, "/api/contacts", nil, domain.AddContactRequest{ContactID: target}, nil)
}

// RemoveContact deletes the caller's edge to contact
func (c *Client) RemoveContact(ctx context.Context, contact string) error {
	return c.do(ctx, http.MethodDelete, "/api/contacts", url.Values{"id": {contact}}, nil, nil)
}

// SearchPIN finds an unlinked user by PIN
func (c *Client) SearchPIN(ctx context.Context, pin string) ([]*domain.SearchResult, error) {
	var out struct {
		Users []*domain.SearchResult `json:"users"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/contacts", url.Values{"q": {pin}}, nil, &out)
	return out.Users, err
}

// PendingRequests lists incoming contact requests
func (c *Client) PendingRequests(ctx context.Context) ([]*domain.PendingRequest, error) {
	var out struct {
		Requests []*domain.PendingRequest `json:"requests"`
	}
	err := c.do(ctx, http.MethodGet, "/api/contacts/requests", nil, nil, &out)
	return out.Requests, err
}

// AcceptRequest accepts a pending request from requester
func (c *Client) AcceptRequest(ctx context.Context, requester string) (*domain.ContactResponse, error) {
	var out struct {
		Contact *domain.ContactResponse `json:"contact"`
	}
	err := c.do(ctx, http.MethodPost, "/api/contacts/requests", nil, domain.AcceptRequest{RequesterID: requester}, &out)
	return out.Contact, err
}

// RejectRequest drops a pending request from requester
func (c *Client) RejectRequest(ctx context.Context, requester string) error {
	return c.do(ctx, http.MethodDelete, "/api/contacts/requests", url.Values{"id": {requester}}, nil, nil)
}

// Messages returns the canonical conversation with peer
func (c *Client) Messages(ctx context.Context, peer string) ([]*domain.MessageResponse, error) {
	var out struct {
		Messages []*domain.MessageResponse `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/api/messages", url.Values{"peer": {peer}}, nil, &out)
	return out.Messages, err
}

type messageResult struct {
	Message *domain.MessageResponse `json:"message"`
}

// Send appends a message
func (c *Client) Send(ctx context.Context, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	var out messageResult
	if err := c.do(ctx, http.MethodPost, "/api/messages", nil, req, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// Edit replaces the text of an own message
func (c *Client) Edit(ctx context.Context, id int64, content string) (*domain.MessageResponse, error) {
	var out messageResult
	err := c.do(ctx, http.MethodPut, "/api/messages", nil, domain.EditMessageRequest{ID: id, Content: content}, &out)
	return out.Message, err
}

// Delete soft-deletes an own message
func (c *Client) Delete(ctx context.Context, id int64) (*domain.MessageResponse, error) {
	var out messageResult
	err := c.do(ctx, http.MethodDelete, "/api/messages", url.Values{"id": {strconv.FormatInt(id, 10)}}, nil, &out)
	return out.Message, err
}

// ClearConversation soft-deletes every message with peer
func (c *Client) ClearConversation(ctx context.Context, peer string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/messages", url.Values{"peer_id": {peer}}, nil, &out)
	return out.Count, err
}

// MarkRead flags every message from peer as read
func (c *Client) MarkRead(ctx context.Context, peer string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/messages", url.Values{"peer_id": {peer}}, nil, &out)
	return out.Count, err
}

// Upload stores body as an avatar or chat attachment
func (c *Client) Upload(ctx context.Context, target, contentType string, body io.Reader) (*storage.UploadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/upload", url.Values{"type": {target}}), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var out storage.UploadResult
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DialEvents opens the push channel with the session cookie
func (c *Client) DialEvents(ctx context.Context) (*websocket.Conn, error) {
	var token *http.Cookie
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == c.cookieName {
			token = ck
		}
	}
	if token == nil {
		return nil, ErrNotLoggedIn
	}

	u := *c.baseURL
	u.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = c.baseURL.Path + "/ws"

	header := http.Header{}
	header.Set("Cookie", token.String())
	conn, _, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("chatclient: dial events: %w", err)
	}
	return conn, nil
}
