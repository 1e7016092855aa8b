package api

import (
	"fmt"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/pkg/openapi"
)

// BuildSpec assembles the OpenAPI document for the API module.
func BuildSpec(cfg *config.Config) (*openapi.Spec, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"RecordSignal": {
			Type:     "object",
			Required: []string{"action_type", "agent_name", "signal", "autonomy_tier_at_time"},
			Properties: map[string]*openapi.Schema{
				"action_type":            {Type: "string", Example: "draft_email"},
				"agent_name":             {Type: "string"},
				"signal":                 {Type: "string", Enum: []any{"approved", "approved_edited", "rejected", "undone", "auto_executed", "auto_undone", "expired"}},
				"edit_distance":          {Type: "integer", Description: "Number of edited characters or fields"},
				"edit_fields":            {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"time_to_respond_ms":     {Type: "integer"},
				"confidence_at_proposal": {Type: "number"},
				"linked_entity_ids":      {Type: "object", AdditionalProperties: &openapi.Schema{Type: "string"}, Description: "Entity kind to identifier, e.g. deal_id"},
				"autonomy_tier_at_time":  {Type: "string"},
				"is_backfill":            {Type: "boolean"},
			},
		},
		"TrustState": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"user_id":              {Type: "string", Format: "uuid"},
				"org_id":               {Type: "string", Format: "uuid"},
				"action_type":          {Type: "string"},
				"tier":                 {Type: "string", Enum: []any{"suggest", "approve", "auto"}},
				"score":                {Type: "number"},
				"total_signals":        {Type: "integer"},
				"clean_approved_count": {Type: "integer"},
				"promotion_eligible":   {Type: "boolean"},
				"cooldown_until":       {Type: "string", Format: "date-time"},
				"never_promote":        {Type: "boolean"},
				"pending_nudge":        {Type: "boolean"},
				"updated_at":           {Type: "string", Format: "date-time"},
			},
		},
		"PromotionDecision": {
			Type:     "object",
			Required: []string{"decision"},
			Properties: map[string]*openapi.Schema{
				"decision": {Type: "string", Enum: []any{"accept", "defer", "never"}},
			},
		},
		"Nudge": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"action_type": {Type: "string"},
				"message":     {Type: "string"},
			},
		},
		"AuditEvent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"user_id":     {Type: "string", Format: "uuid"},
				"org_id":      {Type: "string", Format: "uuid"},
				"action_type": {Type: "string"},
				"event_type":  {Type: "string", Enum: []any{"promotion_proposed", "promotion_accepted", "promotion_deferred", "promotion_opted_out", "demotion_executed"}},
				"reason":      {Type: "string"},
				"snapshot":    {Type: "object"},
				"created_at":  {Type: "string", Format: "date-time"},
			},
		},
	})

	addPaths(spec)

	if len(spec.Paths) == 0 {
		return nil, fmt.Errorf("openapi spec has no paths")
	}
	return spec, nil
}

func addPaths(spec *openapi.Spec) {
	spec.Paths["/signals"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Record a feedback signal",
			Tags:        []string{"signals"},
			RequestBody: openapi.RequestBodyJSON("RecordSignal", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Signal recorded", "RecordSignal"),
				400: openapi.ResponseRef("BadRequest"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}

	spec.Paths["/signals/nudge"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Retrieve and clear the first pending promotion nudge",
			Description: "One-shot read. Responds with a null nudge when none is pending.",
			Tags:        []string{"signals"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Pending nudge, or null", "Nudge"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}

	spec.Paths["/trust"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List the caller's trust states",
			Tags:    []string{"trust"},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Trust states", "TrustState"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}

	spec.Paths["/trust/{actionType}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Get the trust state for one action type",
			Tags:    []string{"trust"},
			Parameters: []*openapi.Parameter{
				{Name: "actionType", In: "path", Required: true, Schema: &openapi.Schema{Type: "string"}},
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Trust state", "TrustState"),
				401: openapi.ResponseRef("Unauthorized"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/trust/{actionType}/promotion"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: "Apply a promotion decision",
			Tags:    []string{"trust"},
			Parameters: []*openapi.Parameter{
				{Name: "actionType", In: "path", Required: true, Schema: &openapi.Schema{Type: "string"}},
			},
			RequestBody: openapi.RequestBodyJSON("PromotionDecision", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated trust state", "TrustState"),
				400: openapi.ResponseRef("BadRequest"),
				401: openapi.ResponseRef("Unauthorized"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/audit"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List audit events",
			Tags:    []string{"audit"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("action_type", "string", "Filter by action type", false),
				openapi.QueryParam("event_type", "string", "Filter by event type", false),
				openapi.QueryParam("user_id", "string", "Filter by user", false),
				openapi.QueryParam("page", "integer", "Page number", false),
				openapi.QueryParam("page_size", "integer", "Results per page", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Audit events", "AuditEvent"),
				401: openapi.ResponseRef("Unauthorized"),
			},
		},
	}
}
