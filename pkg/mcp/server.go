// Package mcp adapts the itemdeck daemon to the Model Context Protocol
// so agents can browse a loaded collection.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/REPPL/itemdeck.app-sub011/pkg/client"
)

// Server adapts itemdeck-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"itemdeck",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// itemdeck://collection
	s.mcpServer.AddResource(mcp.NewResource(
		"itemdeck://collection",
		"Loaded Collection",
		mcp.WithResourceDescription("Summary of the loaded collection: format, entity types, counts"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadCollection)

	// itemdeck://cards
	s.mcpServer.AddResource(mcp.NewResource(
		"itemdeck://cards",
		"Card Listing",
		mcp.WithResourceDescription("All browsable cards of the collection's primary entity type"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadCards)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"list_cards",
		mcp.WithDescription("List the browsable cards, optionally filtered by group."),
		mcp.WithString("group", mcp.Description("Only cards whose group value matches")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of cards to return")),
	), s.handleListCards)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_card",
		mcp.WithDescription("Fetch one card's full detail: fields plus rendered front/back faces."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The card's entity id")),
	), s.handleGetCard)

	s.mcpServer.AddTool(mcp.NewTool(
		"resolve_field",
		mcp.WithDescription("Evaluate a field-path expression (with ?? fallbacks) against a card, e.g. 'platform.title ?? \"Unknown\"'."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The card's entity id")),
		mcp.WithString("path", mcp.Required(), mcp.Description("The field-path expression")),
	), s.handleResolveField)

	s.mcpServer.AddTool(mcp.NewTool(
		"select_image",
		mcp.WithDescription("Evaluate an image-selector expression against a card, e.g. 'images[type=cover][0] ?? images[0]'."),
		mcp.WithString("id", mcp.Required(), mcp.Description("The card's entity id")),
		mcp.WithString("selector", mcp.Required(), mcp.Description("The image-selector expression")),
	), s.handleSelectImage)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"itemdeck-aware",
		mcp.WithPromptDescription("Provides context about itemdeck concepts (collections, cards, relationships, expressions)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadCollection(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summary, err := s.apiClient.GetCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	return jsonResource(request.Params.URI, summary)
}

func (s *Server) handleReadCards(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cards, err := s.apiClient.GetCards(ctx, client.CardsOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards: %w", err)
	}
	return jsonResource(request.Params.URI, cards)
}

func (s *Server) handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := client.CardsOptions{
		Group: mcp.ParseString(request, "group", ""),
		Limit: int(mcp.ParseFloat64(request, "limit", 0)),
	}

	cards, err := s.apiClient.GetCards(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	var sb strings.Builder
	for _, c := range cards {
		fmt.Fprintf(&sb, "%s: %s", c.ID, c.Title)
		if c.Group != "" {
			fmt.Fprintf(&sb, " (%s)", c.Group)
		}
		if c.Degraded {
			sb.WriteString(" [degraded]")
		}
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return mcp.NewToolResultText("No cards matched."), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")

	detail, err := s.apiClient.GetCard(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal card: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleResolveField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	path := mcp.ParseString(request, "path", "")

	result, err := s.apiClient.ResolveField(ctx, id, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if !result.Found {
		return mcp.NewToolResultText("No value (every path in the fallback chain missed)."), nil
	}
	return mcp.NewToolResultText(string(result.Value)), nil
}

func (s *Server) handleSelectImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "id", "")
	selector := mcp.ParseString(request, "selector", "")

	images, err := s.apiClient.SelectImage(ctx, id, selector)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if len(images) == 0 {
		return mcp.NewToolResultText("No image matched the selector."), nil
	}

	data, err := json.MarshalIndent(images, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal images: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "itemdeck-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with itemdeck, a catalogue browser over declarative collections.

Concepts:
- Collection: a set of entity types (e.g. 'game', 'platform') with declared relationships.
- Card: one entity of the collection's primary type, display-ready.
- Relationship: a reference field resolved to another entity; unresolved targets degrade a card but never fail the load.
- Field path: a dot/bracket expression with ?? fallbacks, e.g. 'platform.title ?? "Unknown"'.
- Image selector: bracket filters over an image array, e.g. 'images[type=cover][0] ?? images[0]'.

Use 'list_cards' to browse, 'get_card' for detail, and 'resolve_field'/'select_image' to evaluate expressions.
A missing value is a normal outcome of a fallback chain, not an error.
`

	return mcp.NewGetPromptResult(
		"itemdeck-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
