package whalesclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/whales/pkg/whalesdto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Session is a websocket connection answering one request per frame. Queries
// are serialised so each response pairs with its request.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func Dial(ctx context.Context, wsURL string, headers HeaderProvider) (*Session, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      buildHeaders(headers),
	})
	if err != nil {
		return nil, err
	}
	return &Session{conn: conn}, nil
}

func (s *Session) Query(ctx context.Context, req whalesdto.Request) (*whalesdto.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := wsjson.Write(ctx, s.conn, req); err != nil {
		return nil, err
	}
	var resp whalesdto.Response
	if err := wsjson.Read(ctx, s.conn, &resp); err != nil {
		return nil, err
	}
	if resp.Failed() {
		return nil, whalesdto.DomainError{Message: *resp.Error}
	}
	return &resp, nil
}

// Send writes a raw text frame and returns the raw answer.
func (s *Session) Send(ctx context.Context, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return nil, err
	}
	_, data, err := s.conn.Read(ctx)
	return data, err
}

func (s *Session) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "close")
}

func buildHeaders(provider HeaderProvider) http.Header {
	hdr := http.Header{}
	if provider == nil {
		return hdr
	}
	for k, v := range provider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
