package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/park285/whales/internal/whalesclient"
	"github.com/park285/whales/pkg/whalesdto"
)

func main() {
	baseURL := flag.String("url", envDefault("WHALES_BASE_URL", "http://localhost:8080"), "HTTP API base URL")
	wsURL := flag.String("ws", os.Getenv("WHALES_WS_URL"), "websocket URL, e.g. ws://localhost:8081/ws; empty skips the check")
	model := flag.String("model", "material-depth2", "model playing both sides")
	plies := flag.Int("plies", 4, "number of moves to request")
	pngPath := flag.String("png", "", "write the final board to this file")
	flag.Parse()

	client := whalesclient.NewClient(*baseURL, whalesclient.WithTimeout(30*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		log.Printf("/healthz error: %v", err)
	} else {
		log.Println("/healthz ok")
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		log.Fatalf("list_models error: %v", err)
	}
	for _, m := range models {
		log.Printf("model %s (%s): %s", m.InternalName, m.DisplayName, m.Description)
	}

	pgn := ""
	for i := 0; i < *plies; i++ {
		start := time.Now()
		next, err := client.GetMove(ctx, *model, pgn)
		if err != nil {
			log.Printf("get_move #%d error: %v", i+1, err)
			break
		}
		pgn = next
		log.Printf("get_move #%d ok in %s", i+1, time.Since(start).Round(time.Millisecond))
	}
	log.Printf("game:\n%s", pgn)

	if *pngPath != "" {
		png, err := client.RenderBoard(ctx, pgn)
		if err != nil {
			log.Fatalf("render_board error: %v", err)
		}
		if err := os.WriteFile(*pngPath, png, 0o644); err != nil {
			log.Fatalf("write %s: %v", *pngPath, err)
		}
		log.Printf("board written to %s (%d bytes)", *pngPath, len(png))
	}

	recent, err := client.RecentMoves(ctx, *model, 5)
	if err != nil {
		log.Printf("recent_moves error: %v", err)
	}
	for _, r := range recent {
		log.Printf("recent %s %s (%s) value=%.1f nodes=%d cached=%v %dms", r.CreatedAt, r.Move, r.SAN, r.Value, r.Nodes, r.Cached, r.LatencyMS)
	}

	if *wsURL == "" {
		log.Println("WHALES_WS_URL not set; skipping WS check")
		return
	}
	sess, err := whalesclient.Dial(ctx, *wsURL, nil)
	if err != nil {
		log.Fatalf("WS connect error: %v", err)
	}
	defer sess.Close()
	resp, err := sess.Query(ctx, whalesdto.Request{Command: whalesdto.CommandListModels})
	if err != nil {
		log.Fatalf("WS list_models error: %v", err)
	}
	log.Printf("WS ok: %d models", len(resp.ModelList()))
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
