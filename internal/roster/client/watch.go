package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"anoa.com/studentroster/internal/roster/model"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var (
	watchRetryMin = time.Second
	watchRetryMax = 30 * time.Second
)

type sessionEvent struct {
	Type string      `json:"type"`
	User *model.User `json:"user"`
}

func (c *Client) watchURL(token string) (string, error) {
	u, err := url.Parse(c.baseURL + "/auth/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) dialWatch(ctx context.Context, target string) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, &Error{Message: err.Error()}
	}
	return conn, nil
}

// Watch dials synchronously so a rejected token fails the call. A connection
// lost afterwards is redialled with backoff; if the backend then rejects the
// token, fn receives nil.
func (c *Client) Watch(ctx context.Context, token string, fn func(*model.User)) (func(), error) {
	target, err := c.watchURL(token)
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}

	conn, err := c.dialWatch(ctx, target)
	if err != nil {
		return nil, err
	}

	// the watch outlives ctx, which usually belongs to the sign-in request
	watchCtx, cancel := context.WithCancel(context.Background())
	w := &watcher{client: c, target: target, fn: fn, ctx: watchCtx, cancel: cancel, conn: conn}
	go w.run()
	return w.stop, nil
}

type watcher struct {
	client *Client
	target string
	fn     func(*model.User)

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *watcher) stop() {
	w.once.Do(func() {
		w.cancel()
		w.mu.Lock()
		conn := w.conn
		w.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
}

func (w *watcher) stopped() bool {
	return w.ctx.Err() != nil
}

func (w *watcher) run() {
	for {
		ended, err := w.read()
		if ended || w.stopped() {
			return
		}
		logrus.WithError(err).Warn("session watch connection lost, reconnecting")
		if !w.reconnect() {
			return
		}
	}
}

// read delivers events until the connection fails. ended is true once the
// backend has reported the session over.
func (w *watcher) read() (ended bool, err error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	for {
		var event sessionEvent
		if err := conn.ReadJSON(&event); err != nil {
			return false, err
		}
		if w.stopped() {
			return true, nil
		}
		w.fn(event.User)
		if event.User == nil {
			return true, nil
		}
	}
}

func (w *watcher) reconnect() bool {
	delay := watchRetryMin
	for {
		select {
		case <-w.ctx.Done():
			return false
		case <-time.After(delay):
		}

		conn, err := w.client.dialWatch(w.ctx, w.target)
		if err == nil {
			w.mu.Lock()
			old := w.conn
			w.conn = conn
			w.mu.Unlock()
			old.Close()
			if w.stopped() {
				// stop may have closed the old connection only
				conn.Close()
				return false
			}
			logrus.Info("session watch reconnected")
			return true
		}

		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			logrus.WithError(err).Warn("session token rejected while reconnecting watch")
			if !w.stopped() {
				w.fn(nil)
			}
			return false
		}
		if w.stopped() {
			return false
		}

		logrus.WithError(err).WithField("retry_in", delay).Warn("session watch reconnect failed")
		delay *= 2
		if delay > watchRetryMax {
			delay = watchRetryMax
		}
	}
}
