// Package mcp exposes the game as MCP tools backed by the REST API.
package mcp
