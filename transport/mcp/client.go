package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/dogtown/game/service"
)

// Client is a thin MCP client that proxies to the REST API, so every game
// mutation still goes through the same serialized application layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Dogtown Game Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Dogtown - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
You play a dog on a road network. Collect lost objects lying on the roads,
carry them in your bag and bring them to an office to score their value.
A dog that stands still long enough retires; its score goes to the
all-time leaderboard.

AVAILABLE TOOLS:
- list_maps: List available maps
- get_map: Get full map geometry (roads, buildings, offices, loot types)
- join_game: Join a map and receive your auth token
- list_players: List players on your map
- game_state: Get current positions, bags, scores and visible loot
- move_player: Set your direction (U/D/L/R, empty string stops)
- tick: Advance simulation time manually (only when autoticker is off)
- get_records: Read the all-time leaderboard

Keep your token from join_game; every player-scoped tool requires it.
Moving keeps you on roads: motion clamps at road ends, so turn before
junctions pass by. Standing still counts toward retirement.`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the available maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_map",
		Description: "Get the full geometry of a map: roads, buildings, offices and loot types",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "Map id from list_maps",
				},
			},
			Required: []string{"map_id"},
		},
	}, c.handleGetMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Join a map as a named dog and receive an auth token",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_id": map[string]interface{}{
					"type":        "string",
					"description": "Map id to join",
				},
				"user_name": map[string]interface{}{
					"type":        "string",
					"description": "Player name; rejoining with the same name returns the same player",
				},
			},
			Required: []string{"map_id", "user_name"},
		},
	}, c.handleJoinGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List the players on your map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleListPlayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get positions, directions, bags, scores and visible lost objects on your map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_player",
		Description: "Set your movement direction: U, D, L, R, or empty string to stop",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Auth token from join_game",
				},
				"move": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"U", "D", "L", "R", ""},
					"description": "Direction to move, empty to stand still",
				},
			},
			Required: []string{"token", "move"},
		},
	}, c.handleMovePlayer)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance simulation time by the given milliseconds; refused while the autoticker runs",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"time_delta": map[string]interface{}{
					"type":        "integer",
					"description": "Milliseconds of game time to advance",
				},
			},
			Required: []string{"time_delta"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_records",
		Description: "Read the all-time leaderboard of retired players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"start": map[string]interface{}{
					"type":        "integer",
					"description": "Offset into the leaderboard",
				},
				"max_items": map[string]interface{}{
					"type":        "integer",
					"description": "Page size, at most 100",
				},
			},
		},
	}, c.handleGetRecords)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["message"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []service.MapSummary
	if err := c.apiCall("GET", "/api/v1/maps", "", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available maps (%d):\n\n", len(maps))
	for _, m := range maps {
		result += fmt.Sprintf("- %s (%s)\n", m.ID, m.Name)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	mapID, _ := args["map_id"].(string)

	var detail service.MapDetail
	if err := c.apiCall("GET", "/api/v1/maps/"+mapID, "", nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMapDetail(&detail)), nil
}

func (c *Client) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	mapID, _ := args["map_id"].(string)
	userName, _ := args["user_name"].(string)

	var res service.JoinResult
	body := map[string]string{"mapId": mapID, "userName": userName}
	if err := c.apiCall("POST", "/api/v1/game/join", "", body, &res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined map %s as %s\nPlayer id: %d\nToken: %s\n\nKeep the token: player-scoped tools require it.",
		mapID, userName, res.PlayerID, res.Token)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)

	var players map[string]service.PlayerSummary
	if err := c.apiCall("GET", "/api/v1/game/players", token, nil, &players); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := fmt.Sprintf("Players on your map (%d):\n\n", len(players))
	for _, id := range ids {
		result += fmt.Sprintf("- #%s %s\n", id, players[id].Name)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)

	var state service.GameState
	if err := c.apiCall("GET", "/api/v1/game/state", token, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMovePlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)
	move, _ := args["move"].(string)

	body := map[string]string{"move": move}
	if err := c.apiCall("POST", "/api/v1/game/player/action", token, body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if move == "" {
		return mcp.NewToolResultText("Stopped. Standing still counts toward retirement."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moving %s", move)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	delta, ok := args["time_delta"].(float64)
	if !ok || delta < 0 {
		return mcp.NewToolResultError("time_delta must be a non-negative integer"), nil
	}

	body := map[string]int64{"timeDelta": int64(delta)}
	if err := c.apiCall("POST", "/api/v1/game/tick", "", body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Advanced game time by %dms", int64(delta))), nil
}

func (c *Client) handleGetRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})

	params := ""
	if start, ok := args["start"].(float64); ok {
		params += fmt.Sprintf("start=%d&", int(start))
	}
	if maxItems, ok := args["max_items"].(float64); ok {
		params += fmt.Sprintf("maxItems=%d&", int(maxItems))
	}
	path := "/api/v1/game/records"
	if params != "" {
		path += "?" + strings.TrimSuffix(params, "&")
	}

	var records []service.Record
	if err := c.apiCall("GET", path, "", nil, &records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Leaderboard (%d rows):\n\n", len(records))
	for i, r := range records {
		result += fmt.Sprintf("%d. %s: score %d, played %.1fs\n", i+1, r.Name, r.Score, r.PlayTime)
	}
	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatMapDetail(detail *service.MapDetail) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Map: %s (%s)\n", detail.ID, detail.Name))

	b.WriteString(fmt.Sprintf("\nRoads (%d):\n", len(detail.Roads)))
	for _, r := range detail.Roads {
		x1, y1 := r.X0, r.Y0
		if r.X1 != nil {
			x1 = *r.X1
		}
		if r.Y1 != nil {
			y1 = *r.Y1
		}
		b.WriteString(fmt.Sprintf("- (%g,%g)-(%g,%g)\n", r.X0, r.Y0, x1, y1))
	}

	b.WriteString(fmt.Sprintf("\nOffices (%d):\n", len(detail.Offices)))
	for _, o := range detail.Offices {
		b.WriteString(fmt.Sprintf("- %s at (%g,%g)\n", o.ID, o.X, o.Y))
	}

	if len(detail.Buildings) > 0 {
		b.WriteString(fmt.Sprintf("\nBuildings: %d\n", len(detail.Buildings)))
	}
	b.WriteString(fmt.Sprintf("\nLoot types: %s\n", string(detail.LootTypes)))
	return b.String()
}

func formatGameState(state *service.GameState) string {
	var b strings.Builder

	ids := make([]string, 0, len(state.Players))
	for id := range state.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b.WriteString(fmt.Sprintf("Players (%d):\n", len(state.Players)))
	for _, id := range ids {
		p := state.Players[id]
		dir := p.Dir
		if dir == "" {
			dir = "standing"
		}
		b.WriteString(fmt.Sprintf("- #%s at (%.2f,%.2f) %s | bag %d | score %d\n",
			id, p.Pos[0], p.Pos[1], dir, len(p.Bag), p.Score))
	}

	lootIDs := make([]string, 0, len(state.LostObjects))
	for id := range state.LostObjects {
		lootIDs = append(lootIDs, id)
	}
	sort.Strings(lootIDs)

	b.WriteString(fmt.Sprintf("\nLost objects (%d):\n", len(state.LostObjects)))
	for _, id := range lootIDs {
		l := state.LostObjects[id]
		b.WriteString(fmt.Sprintf("- #%s type %d at (%.2f,%.2f)\n", id, l.Type, l.Pos[0], l.Pos[1]))
	}

	return b.String()
}
