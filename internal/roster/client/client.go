// Package client talks to the roster backend over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anoa.com/studentroster/internal/roster/model"
	"github.com/gorilla/websocket"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// StudentAPI is the data client: the four CRUD calls of the roster. Every
// failure is an *Error.
type StudentAPI interface {
	List(ctx context.Context) ([]model.Student, error)
	Insert(ctx context.Context, student model.NewStudent) (*model.Student, error)
	Update(ctx context.Context, id string, patch model.StudentPatch) (*model.Student, error)
	Delete(ctx context.Context, id string) (string, error)
}

// AuthAPI signs users in and out and watches the backend for session changes.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, token string) error
	// Watch calls fn with the current user, then again on every session
	// change; a nil user means the session ended. A dropped connection is
	// re-established until stop is called. stop deregisters fn and must
	// always be called.
	Watch(ctx context.Context, token string, fn func(*model.User)) (stop func(), err error)
}

// Error is the single message form every failed call is reduced to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client is the HTTP implementation of AuthAPI. Students returns a StudentAPI
// bound to a token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
	}
}

func (c *Client) Students(token string) StudentAPI {
	return &studentClient{Client: c, token: token}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: err.Error()}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return &Error{Status: resp.StatusCode, Message: payload.Error}
	}
	return &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}

type studentClient struct {
	*Client
	token string
}

func (c *studentClient) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := c.do(ctx, http.MethodGet, "/students", c.token, nil, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}

func (c *studentClient) Insert(ctx context.Context, student model.NewStudent) (*model.Student, error) {
	var created model.Student
	if err := c.do(ctx, http.MethodPost, "/students", c.token, student, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *studentClient) Update(ctx context.Context, id string, patch model.StudentPatch) (*model.Student, error) {
	var updated model.Student
	if err := c.do(ctx, http.MethodPatch, "/students/"+url.PathEscape(id), c.token, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *studentClient) Delete(ctx context.Context, id string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodDelete, "/students/"+url.PathEscape(id), c.token, nil, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	var session model.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{email, password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	var session model.Session
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", credentials{email, password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}
