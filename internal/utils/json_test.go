package utils

import (
	"testing"
)

func TestToJSONColumn(t *testing.T) {
	if got := ToJSONColumn(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %s", got)
	}
	if got := ToJSONColumn(map[string]any{}); got != nil {
		t.Fatalf("expected nil for empty map, got %s", got)
	}
	got := ToJSONColumn(map[string]any{"reason": "expired"})
	if string(got) != `{"reason":"expired"}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestToJSON(t *testing.T) {
	if got := ToJSON([]int{1, 2}); got != "[1,2]" {
		t.Fatalf("unexpected json: %s", got)
	}
	if got := ToJSON(make(chan int)); got != "" {
		t.Fatalf("expected empty string for unsupported type, got %s", got)
	}
}
