package filter

import (
	"reflect"
	"testing"

	"github.com/studiowebux/benchverify/internal/message"
)

type run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Errors int    `json:"errors"`
}

func TestApply(t *testing.T) {
	runs := []run{
		{ID: "a", Status: "PASS"},
		{ID: "b", Status: "ERROR", Errors: 2},
		{ID: "c", Status: "WARN"},
	}

	tests := []struct {
		name   string
		filter string
		query  string
		want   any
	}{
		{"no expressions", "", "", []any{
			map[string]any{"id": "a", "status": "PASS", "errors": float64(0)},
			map[string]any{"id": "b", "status": "ERROR", "errors": float64(2)},
			map[string]any{"id": "c", "status": "WARN", "errors": float64(0)},
		}},
		{"filter", "[?status=='ERROR']", "[].id", []any{"b"}},
		{"query only", "", "[].status", []any{"PASS", "ERROR", "WARN"}},
		{"aggregate", "", "sum([].errors)", float64(2)},
		{"no match", "[?status=='SKIP']", "", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(runs, tt.filter, tt.query)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestApplyInvalidExpression(t *testing.T) {
	if _, err := Apply([]run{}, "", "[?"); err == nil {
		t.Error("expected an error for an invalid expression")
	}
	if IsValidJMESPath("[?") {
		t.Error("IsValidJMESPath accepted an invalid expression")
	}
	if !IsValidJMESPath("[].id") {
		t.Error("IsValidJMESPath rejected a valid expression")
	}
}

func TestApplyFindingKindByName(t *testing.T) {
	findings := []message.Record{
		{Kind: message.KindWarning, ShortMessage: "Extra Key"},
		{Kind: message.KindError, ShortMessage: "Invalid Fortunes"},
	}

	got, err := Apply(findings, "[?kind=='error']", "[].shortMessage")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := []any{"Invalid Fortunes"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}
