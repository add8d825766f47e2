// Command bot is a REST-driving load bot: it joins a map as a dog, random-
// walks the road network for a while and reports the score it reached.
// Several bots with distinct names can run against one server to exercise
// multi-player sessions.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type JoinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

type PlayerState struct {
	Pos   [2]float64        `json:"pos"`
	Speed [2]float64        `json:"speed"`
	Dir   string            `json:"dir"`
	Bag   []json.RawMessage `json:"bag"`
	Score int               `json:"score"`
}

type GameState struct {
	Players     map[string]PlayerState     `json:"players"`
	LostObjects map[string]json.RawMessage `json:"lostObjects"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Join(mapID, name string) (*JoinResponse, error) {
	body, err := json.Marshal(map[string]string{"mapId": mapID, "userName": name})
	if err != nil {
		return nil, fmt.Errorf("marshal join request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/api/v1/game/join", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("join game: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("join failed: %s - %s", resp.Status, string(data))
	}

	var join JoinResponse
	if err := json.Unmarshal(data, &join); err != nil {
		return nil, fmt.Errorf("parse join response: %w", err)
	}

	c.token = join.AuthToken
	return &join, nil
}

func (c *Client) GetState() (*GameState, error) {
	req, err := http.NewRequest("GET", c.baseURL+"/api/v1/game/state", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get state failed: %s - %s", resp.Status, string(data))
	}

	var state GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

func (c *Client) Move(direction string) error {
	body, err := json.Marshal(map[string]string{"move": direction})
	if err != nil {
		return fmt.Errorf("marshal move: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/v1/game/player/action", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute move: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("move failed: %s - %s", resp.Status, string(data))
	}
	return nil
}

var directions = []string{"U", "D", "L", "R"}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Game server URL")
	mapID := flag.String("map-id", "", "Map to join (required)")
	name := flag.String("name", fmt.Sprintf("bot-%04d", rand.Intn(10000)), "Player name")
	moves := flag.Int("moves", 200, "Number of direction changes before stopping")
	delayMs := flag.Int("delay", 250, "Delay between direction changes in milliseconds")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *mapID == "" {
		log.Fatal("--map-id is required")
	}

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)

	join, err := client.Join(*mapID, *name)
	if err != nil {
		log.Fatalf("Failed to join: %v", err)
	}
	playerKey := fmt.Sprintf("%d", join.PlayerID)
	log.Printf("Joined map %s as %s (player #%s)", *mapID, *name, playerKey)

	lastScore := 0
	for i := 0; i < *moves; i++ {
		direction := directions[rand.Intn(len(directions))]
		if err := client.Move(direction); err != nil {
			log.Printf("Move failed: %v", err)
			continue
		}

		time.Sleep(time.Duration(*delayMs) * time.Millisecond)

		state, err := client.GetState()
		if err != nil {
			// The dog may have retired; report and stop.
			log.Printf("State lookup failed (retired?): %v", err)
			break
		}
		me, ok := state.Players[playerKey]
		if !ok {
			log.Printf("Player no longer in session, stopping")
			break
		}
		if me.Score != lastScore {
			log.Printf("Score: %d -> %d (bag %d, at %.1f,%.1f)",
				lastScore, me.Score, len(me.Bag), me.Pos[0], me.Pos[1])
			lastScore = me.Score
		} else if *verbose && i%20 == 0 {
			log.Printf("Move %d/%d: at (%.1f,%.1f) heading %s, bag %d, score %d",
				i+1, *moves, me.Pos[0], me.Pos[1], direction, len(me.Bag), me.Score)
		}
	}

	state, err := client.GetState()
	if err != nil {
		log.Printf("Final state unavailable: %v", err)
		fmt.Printf("%s finished with score %d\n", *name, lastScore)
		os.Exit(0)
	}
	if me, ok := state.Players[playerKey]; ok {
		fmt.Printf("%s finished with score %d (bag %d)\n", *name, me.Score, len(me.Bag))
	} else {
		fmt.Printf("%s retired with score %d\n", *name, lastScore)
	}
}
