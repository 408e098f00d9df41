package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/r3labs/diff/v2"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/apimachinery/pkg/watch"

	"svcview/internal/cluster"
	"svcview/internal/kube"
	"svcview/internal/view"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MsgShowAll is the client message that expands the pod table.
const MsgShowAll = "showAll"

// rewatchBackoff bounds how long a session tries to reopen a closed pod
// watch before giving up.
var rewatchBackoff = wait.Backoff{
	Duration: 500 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    5,
}

type Frame struct {
	Session string        `json:"session"`
	Item    *view.Section `json:"item"`
}

// SelectedPodsWS keeps a selected pods section live: every change reported
// by a pod watch triggers a relist, and the section is pushed again when it
// differs from the last one sent.
type SelectedPodsWS struct {
	Mgr *cluster.Manager
	Now func() time.Time
}

func (h *SelectedPodsWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	name := chi.URLParam(r, "name")
	clusterName := r.URL.Query().Get("cluster")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := uuid.NewString()
	logger := logrus.WithFields(logrus.Fields{
		"component": "stream",
		"session":   session,
		"namespace": ns,
		"service":   name,
	})

	clients, active, err := h.Mgr.ClientsFor(ctx, clusterName)
	if err != nil {
		closeWithError(conn, err)
		return
	}

	svc, err := kube.GetService(ctx, clients, active, ns, name)
	if err != nil {
		closeWithError(conn, err)
		return
	}

	v := view.NewSelectedPods(kube.ManagerPodLister{Mgr: h.Mgr})
	v.SetService(svc)

	s := &sender{conn: conn, session: session, now: h.now}
	if !v.HasSelector() {
		if err := s.push(v, true); err == nil {
			closeNormal(conn)
		}
		return
	}

	// watch before the first list so no change falls between the two
	watcher, err := kube.WatchPods(ctx, clients, ns, v.LabelSelector())
	if err != nil {
		closeWithError(conn, err)
		return
	}
	defer func() { watcher.Stop() }()

	_ = v.Refresh(ctx)
	if err := s.push(v, true); err != nil {
		return
	}

	logger.WithField("selector", v.LabelSelector()).Debug("selected pods stream started")

	showAll := make(chan struct{}, 1)
	go func() {
		defer cancel()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.TrimSpace(string(msg)) == MsgShowAll {
				select {
				case showAll <- struct{}{}:
				default:
				}
			}
		}
	}()

	// keepalive ping
	go func() {
		t := time.NewTicker(20 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(2*time.Second))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("selected pods stream closed")
			return
		case <-showAll:
			v.ShowAll()
			if err := s.push(v, false); err != nil {
				return
			}
		case ev, ok := <-watcher.ResultChan():
			// one relist covers every event already queued
			open := ok && ev.Type != watch.Error
			if open {
				open = drain(watcher)
			}
			if !open {
				// the API server ends watches on its own schedule; reopen
				// and relist so nothing that changed in between is lost
				watcher.Stop()
				watcher, err = rewatch(ctx, clients, ns, v.LabelSelector())
				if err != nil {
					if ctx.Err() == nil {
						logger.WithError(err).Warn("reopen pod watch")
						closeWithError(conn, err)
					}
					return
				}
				logger.Debug("pod watch reopened")
			}
			if err := v.Refresh(ctx); err != nil {
				logger.WithError(err).Warn("relist selected pods")
			}
			if err := s.push(v, false); err != nil {
				return
			}
		}
	}
}

// drain consumes the events already buffered on w without blocking. It
// reports false when the watch ended or delivered an error.
func drain(w watch.Interface) bool {
	for {
		select {
		case ev, ok := <-w.ResultChan():
			if !ok || ev.Type == watch.Error {
				return false
			}
		default:
			return true
		}
	}
}

func rewatch(ctx context.Context, c *cluster.Clients, ns, selector string) (watch.Interface, error) {
	var (
		w       watch.Interface
		lastErr error
	)
	err := wait.ExponentialBackoffWithContext(ctx, rewatchBackoff, func(ctx context.Context) (bool, error) {
		w, lastErr = kube.WatchPods(ctx, c, ns, selector)
		return lastErr == nil, nil
	})
	if err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return w, nil
}

func closeWithError(conn *websocket.Conn, err error) {
	_ = conn.WriteMessage(websocket.TextMessage, []byte("ERROR: "+err.Error()))
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, truncateReason(err.Error())),
		time.Now().Add(time.Second))
}

func closeNormal(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// close frame payloads are limited to 125 bytes, two of which carry the code
func truncateReason(s string) string {
	if len(s) > 123 {
		return s[:123]
	}
	return s
}

func (h *SelectedPodsWS) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type sender struct {
	conn    *websocket.Conn
	session string
	now     func() time.Time
	last    *view.Section
}

func (s *sender) push(v *view.SelectedPods, force bool) error {
	cur := v.Render(s.now())
	if !force && s.last != nil && cur != nil {
		changes, err := diff.Diff(s.last, cur)
		if err == nil && len(changes) == 0 {
			return nil
		}
	}
	s.last = cur

	b, err := json.Marshal(Frame{Session: s.session, Item: cur})
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, b)
}
