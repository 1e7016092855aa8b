package api_test

import (
	"testing"

	"github.com/SixtySecondsApp/use60-sub018/internal/api"
	"github.com/SixtySecondsApp/use60-sub018/internal/config"
)

func TestRecordSignalSchemaMatchesContract(t *testing.T) {
	cfg := &config.Config{Version: "0.0.0-test"}
	if err := cfg.API.Finalize(); err != nil {
		t.Fatalf("api config finalize: %v", err)
	}

	spec, err := api.BuildSpec(cfg)
	if err != nil {
		t.Fatalf("BuildSpec() error = %v", err)
	}

	schema, ok := spec.Components.Schemas["RecordSignal"]
	if !ok {
		t.Fatal("RecordSignal schema missing")
	}

	required := map[string]bool{}
	for _, field := range schema.Required {
		required[field] = true
	}
	for _, field := range []string{"action_type", "agent_name", "signal", "autonomy_tier_at_time"} {
		if !required[field] {
			t.Errorf("required missing %q", field)
		}
	}

	linked, ok := schema.Properties["linked_entity_ids"]
	if !ok {
		t.Fatal("linked_entity_ids property missing")
	}
	if linked.Type != "object" {
		t.Errorf("linked_entity_ids type = %q, want object", linked.Type)
	}
	if linked.AdditionalProperties == nil || linked.AdditionalProperties.Type != "string" {
		t.Error("linked_entity_ids should map string keys to string values")
	}

	if dist := schema.Properties["edit_distance"]; dist == nil || dist.Type != "integer" {
		t.Error("edit_distance should be an integer")
	}
}
