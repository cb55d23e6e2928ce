package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/memory"
)

const defaultSearchLimit = 5

// MemoryTools creates the semantic-memory management tools backed by
// the given store. Both tools operate on the facts namespace of the
// user the current run acts for; they cannot reach any other namespace.
func MemoryTools(store memory.Store) []core.Tool {
	return []core.Tool{
		manageMemoryTool(store),
		searchMemoryTool(store),
	}
}

// manageMemoryTool stores one semantic fact, equivalent to a Put under
// a fresh key.
func manageMemoryTool(store memory.Store) core.Tool {
	return New("manage_memory").
		Description("Store a fact worth remembering about the user's contacts, preferences, or context. Use this whenever an email reveals durable information, e.g. 'Jim prefers afternoon meetings'.").
		Schema(ObjectSchema(map[string]interface{}{
			"fact": StringProperty("The fact to remember, phrased as a standalone statement"),
		}, "fact")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				Fact string `json:"fact"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
			}
			if strings.TrimSpace(input.Fact) == "" {
				return &core.ToolResult{Success: false, Error: "fact must not be empty"}, nil
			}

			key := uuid.New().String()
			ns := memory.FactsNamespace(params.UserID)
			if err := store.Put(ctx, ns, key, input.Fact); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("store fact: %v", err)}, nil
			}

			return &core.ToolResult{
				Success: true,
				Data: map[string]interface{}{
					"key":     key,
					"message": "Fact stored.",
				},
			}, nil
		}).
		Build()
}

// searchMemoryTool retrieves stored facts by similarity, equivalent to
// a Search over the same namespace.
func searchMemoryTool(store memory.Store) core.Tool {
	return New("search_memory").
		Description("Search previously stored facts about the user's contacts and preferences. Use this before answering questions that may depend on remembered context.").
		Schema(ObjectSchema(map[string]interface{}{
			"query": StringProperty("What to look for"),
			"limit": IntegerProperty("Maximum number of facts to return (default 5)"),
		}, "query")).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var input struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(params.Input, &input); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
			}
			if input.Limit <= 0 {
				input.Limit = defaultSearchLimit
			}

			ns := memory.FactsNamespace(params.UserID)
			records, err := store.Search(ctx, ns, input.Query, input.Limit)
			if err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("search facts: %v", err)}, nil
			}

			facts := make([]string, 0, len(records))
			for _, rec := range records {
				if fact, ok := rec.Value.(string); ok {
					facts = append(facts, fact)
				}
			}

			return &core.ToolResult{
				Success: true,
				Data: map[string]interface{}{
					"facts": facts,
					"count": len(facts),
				},
			}, nil
		}).
		Build()
}
