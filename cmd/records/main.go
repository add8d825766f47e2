// Command records prints the all-time leaderboard of retired players from
// the stats database. The connection string is read from GAME_DB_URL
// (optionally via a .env file).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/wricardo/dogtown/storage"
)

var (
	start    = flag.Int("start", 0, "Offset into the leaderboard")
	maxItems = flag.Int("max-items", 20, "Number of rows to print (at most 100)")
)

func main() {
	godotenv.Load()
	flag.Parse()

	dbURL := os.Getenv("GAME_DB_URL")
	if dbURL == "" {
		log.Fatal("GAME_DB_URL environment variable is required")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open stats store: %v", err)
	}
	defer store.Close()

	rows, err := store.Records(ctx, *start, *maxItems)
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}

	if len(rows) == 0 {
		fmt.Println("No retired players yet.")
		return
	}

	fmt.Printf("%-4s %-20s %8s %12s\n", "#", "NAME", "SCORE", "PLAYED")
	for i, r := range rows {
		fmt.Printf("%-4d %-20s %8d %11.1fs\n",
			*start+i+1, r.Name, r.Score, float64(r.PlayTimeMs)*0.001)
	}
}
