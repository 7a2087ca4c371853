package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/keys"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"mealcover_generate_cover": handleGenerateCover,
	"mealcover_budget":         handleBudget,
	"mealcover_cache_lookup":   handleCacheLookup,
	"mealcover_audit_search":   handleAuditSearch,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var allTools = []ToolDefinition{
	{
		Name:        "mealcover_generate_cover",
		Description: "Fetch or generate the cover image for a meal event title on behalf of a group member.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"subject_text", "group_id", "caller_name"},
			"properties": map[string]any{
				"subject_text": stringProp("Event title, e.g. \"Taco Night!!\""),
				"group_id":     stringProp("Group the event belongs to"),
				"caller_name":  stringProp("Display name of the requesting member"),
			},
		},
	},
	{
		Name:        "mealcover_budget",
		Description: "Show units generated and spend against the global cap.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "mealcover_cache_lookup",
		Description: "Show the normalized cache key for a title and any cached artifact URLs.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"title"},
			"properties": map[string]any{
				"title": stringProp("Event title to normalize and look up"),
			},
		},
	},
	{
		Name:        "mealcover_audit_search",
		Description: "Search recent pipeline outcomes with optional filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"group_id": stringProp("Filter by group (optional)"),
				"outcome":  stringProp("Filter by outcome: cache_hit, generated, budget_exceeded, failed, rejected (optional)"),
				"since":    stringProp("Start date in YYYY-MM-DD format (optional)"),
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

type generateArgs struct {
	SubjectText string `json:"subject_text"`
	GroupID     string `json:"group_id"`
	CallerName  string `json:"caller_name"`
}

func handleGenerateCover(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.deps.Pipeline == nil {
		return textResult("Cover generation is not configured.")
	}
	var args generateArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	resp, err := s.deps.Pipeline.Handle(ctx, models.GenerationRequest{
		SubjectText: args.SubjectText,
		GroupID:     args.GroupID,
		CallerName:  args.CallerName,
	})
	if err != nil {
		return errorResult("Request rejected: " + err.Error())
	}

	switch {
	case resp.ArtifactURL != nil && resp.Cached:
		return textResult("Cached cover: " + *resp.ArtifactURL)
	case resp.ArtifactURL != nil:
		return textResult("Generated cover: " + *resp.ArtifactURL)
	case resp.BudgetExceeded:
		return textResult("Generation budget exhausted; no cover produced.")
	default:
		return errorResult("No cover produced: " + resp.Error)
	}
}

func handleBudget(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.deps.Budget == nil {
		return textResult("Budget ledger is not configured.")
	}
	st, err := s.deps.Budget.Status(ctx)
	if err != nil {
		return errorResult("Error fetching budget status: " + err.Error())
	}
	pct := float64(0)
	if st.Cap > 0 {
		pct = st.State.TotalCostSpent() / st.Cap * 100
	}
	return textResult(fmt.Sprintf("Budget\n"+
		"  Units:     %d\n"+
		"  Spent:     %.6f\n"+
		"  Cap:       %.6f\n"+
		"  Remaining: %.6f\n"+
		"  Usage:     %.1f%%\n",
		st.State.UnitsGenerated, st.State.TotalCostSpent(), st.Cap, st.Remaining, pct))
}

type cacheLookupArgs struct {
	Title string `json:"title"`
}

func handleCacheLookup(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.deps.Cache == nil {
		return textResult("Cache is not configured.")
	}
	var args cacheLookupArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if strings.TrimSpace(args.Title) == "" {
		return errorResult("title is required")
	}

	key := keys.Normalize(args.Title)
	entries, err := s.deps.Cache.Entries(ctx, key)
	if err != nil {
		return errorResult("Error reading cache: " + err.Error())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Key: %q\n", key)
	if len(entries) == 0 {
		b.WriteString("No cached artifact.\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.ArtifactURL)
	}
	return textResult(b.String())
}

type auditSearchArgs struct {
	GroupID string `json:"group_id"`
	Outcome string `json:"outcome"`
	Since   string `json:"since"`
}

func handleAuditSearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.deps.Audit == nil {
		return textResult("Audit logging is not configured.")
	}
	var args auditSearchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	opts := models.AuditQueryOpts{
		GroupID: args.GroupID,
		Outcome: models.Outcome(args.Outcome),
		Limit:   50,
	}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		opts.Since = t
	}

	entries, err := s.deps.Audit.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching audit log: " + err.Error())
	}
	if len(entries) == 0 {
		return textResult("No audit entries found.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-12s %-16s %-16s %s\n", "Time", "Group", "Caller", "Outcome", "Key")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-20s %-12s %-16s %-16s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.GroupID, e.CallerName, e.Outcome, e.NormalizedKey)
	}
	return textResult(b.String())
}
