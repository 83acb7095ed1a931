package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"seekers/internal/api"
	"seekers/internal/bot"
	"seekers/internal/config"
	"seekers/internal/game"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🧲 ================================")
	log.Println("🧲  SEEKERS - GAME SERVER")
	log.Println("🧲 ================================")

	configPath := getEnvWithDefault("SEEKERS_CONFIG", "config.ini")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("⚙️ Config: %s (%gx%g map, %d players, %d seekers, %d goals, seed %d)",
		configPath, cfg.Map.Width, cfg.Map.Height,
		cfg.Global.Players, cfg.Global.Seekers, cfg.Global.Goals, cfg.Global.Seed)

	g := game.New(cfg)

	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := g.StartEventLog(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Local bots fill seats that remote players are not expected to take.
	bots := getEnvInt("SEEKERS_BOTS", 0)
	decides := []game.DecideFunc{bot.ChaseNearestGoal, bot.HerdToCamp}
	for i := 0; i < bots; i++ {
		name := "Bot " + strconv.Itoa(i+1)
		if _, err := g.AddPlayer(name, nil, game.NewLocalController(decides[i%len(decides)])); err != nil {
			log.Fatalf("❌ Adding %s: %v", name, err)
		}
		log.Printf("🤖 %s added", name)
	}

	server := api.NewServer(g, api.ServerConfig{})
	addr := ":" + getEnvWithDefault("PORT", "7777")
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ API server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("⏳ Waiting for %d players to join...", cfg.Global.Players)
	if !waitForPlayers(g, cfg.Global.Players, quit) {
		shutdown(g, server)
		return
	}

	if err := g.Start(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("🚀 Game started")

	done := make(chan []game.Score, 1)
	go func() { done <- g.Run() }()

	select {
	case scores := <-done:
		printScores(scores)
	case <-quit:
		log.Println("🛑 Shutting down...")
		g.Stop()
		printScores(<-done)
	}

	shutdown(g, server)
}

// waitForPlayers blocks until the roster is full. Returns false when the
// process is signalled first.
func waitForPlayers(g *game.Game, want int, quit <-chan os.Signal) bool {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if len(g.Players()) >= want {
				return true
			}
		case <-quit:
			log.Println("🛑 Interrupted while waiting for players")
			return false
		}
	}
}

func printScores(scores []game.Score) {
	log.Println("🏁 Final standing:")
	for i, s := range scores {
		log.Printf("🏆 %d. %s: %d", i+1, s.Name, s.Score)
	}
}

func shutdown(g *game.Game, server *api.Server) {
	g.StopEventLog()
	server.Stop()
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
