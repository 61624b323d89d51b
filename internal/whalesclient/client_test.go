package whalesclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/whales/pkg/whalesdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// serve runs handler on an in-memory listener and returns a client wired to it.
func serve(t *testing.T, handler fasthttp.RequestHandler, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	opts = append([]Option{
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithTimeout(2 * time.Second),
	}, opts...)
	return NewClient("http://whales.test/", opts...)
}

func decodeRequest(t *testing.T, ctx *fasthttp.RequestCtx) whalesdto.Request {
	var req whalesdto.Request
	assert.NoError(t, json.Unmarshal(ctx.PostBody(), &req))
	return req
}

func TestClientCommands(t *testing.T) {
	var seen []whalesdto.Request
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/api", string(ctx.Path()))
		assert.Equal(t, "42", string(ctx.Request.Header.Peek("X-Trace-Id")))
		req := decodeRequest(t, ctx)
		seen = append(seen, req)
		switch req.Command {
		case whalesdto.CommandListModels:
			ctx.SetBodyString(`{"models":[{"internalName":"random","displayName":"Random","description":"Make random moves"}],"error":null}`)
		case whalesdto.CommandGetMove:
			ctx.SetBodyString(`{"pgn":"1. e4 *","error":null}`)
		case whalesdto.CommandRenderBoard:
			ctx.SetBodyString(`{"png":"iVBORw==","error":null}`)
		case whalesdto.CommandRecentMoves:
			ctx.SetBodyString(`{"moves":[{"requestId":"r1","model":"random","move":"e2e4","san":"e4","value":0,"nodes":0,"cached":false,"result":"ongoing","latencyMs":3,"createdAt":"2024-05-01T10:00:00Z"}],"error":null}`)
		}
	}, WithHeaderProvider(func() map[string]string { return map[string]string{"X-Trace-Id": "42", "X-Empty": ""} }))
	ctx := context.Background()

	models, err := client.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "random", models[0].InternalName)

	pgn, err := client.GetMove(ctx, "random", "")
	require.NoError(t, err)
	assert.Equal(t, "1. e4 *", pgn)

	png, err := client.RenderBoard(ctx, "1. e4 *")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png)

	moves, err := client.RecentMoves(ctx, "random", 5)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "e2e4", moves[0].Move)

	require.Len(t, seen, 4)
	// an empty pgn is still sent, since it means "new game"
	require.NotNil(t, seen[1].PGN)
	assert.Equal(t, "", *seen[1].PGN)
	assert.Equal(t, 5, seen[3].Limit)
}

func TestClientReturnsDomainError(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"error":"unknown model 'chess'"}`)
	})
	_, err := client.GetMove(context.Background(), "chess", "")
	var derr whalesdto.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "unknown model 'chess'", derr.Error())
}

func TestClientRetriesUnavailable(t *testing.T) {
	var calls int32
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) == 1 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetBodyString(`{"models":[],"error":null}`)
	})
	_, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryMoves(t *testing.T) {
	var calls int32
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
	})
	_, err := client.GetMove(context.Background(), "random", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClientHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, "/healthz", string(ctx.Path()))
		if !healthy.Load() {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		}
		ctx.SetBodyString(`{"status":"ok"}`)
	}, WithRetry(1))
	require.NoError(t, client.Health(context.Background()))
	healthy.Store(false)
	assert.Error(t, client.Health(context.Background()))
}

func TestBackoffDuration(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDuration(0))
	assert.Equal(t, 400*time.Millisecond, backoffDuration(3))
	assert.Equal(t, 3200*time.Millisecond, backoffDuration(10))
}
