package main

import (
	"log"
	"os"

	"seekers/internal/bot"
	"seekers/internal/client"
	"seekers/internal/game"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	addr := getEnvWithDefault("SEEKERS_SERVER", "localhost:7777")
	name := getEnvWithDefault("SEEKERS_NAME", "Player")
	careful := os.Getenv("SEEKERS_CAREFUL") == "true"

	decide := pickDecide(getEnvWithDefault("SEEKERS_BOT", "chase"))

	service := client.Dial(addr)
	if err := service.Join(name, nil); err != nil {
		log.Fatalf("❌ Join failed: %v", err)
	}
	log.Printf("🙋 Joined %s as %q (player %s)", addr, service.Name, service.PlayerID)

	runner := client.NewRunner(service, decide, careful)
	if err := runner.Run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func pickDecide(kind string) game.DecideFunc {
	switch kind {
	case "herd":
		return bot.HerdToCamp
	case "idle":
		return bot.Idle
	default:
		return bot.ChaseNearestGoal
	}
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
