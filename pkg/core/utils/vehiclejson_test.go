package utils

import (
	"strings"
	"testing"
)

func TestDecodeVehicleJSONStrict(t *testing.T) {
	vehicle, err := DecodeVehicleJSON(`{"model": "Transit", "age_months": 36}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vehicle["model"] != "Transit" {
		t.Errorf("expected model Transit, got %v", vehicle["model"])
	}
}

func TestDecodeVehicleJSONRepairsSloppyInput(t *testing.T) {
	cases := []string{
		`{model: 'Transit', age_months: 36}`,
		`{"model": "Transit", "age_months": 36,}`,
		"```json\n{\"model\": \"Transit\"}\n```",
	}
	for _, doc := range cases {
		vehicle, err := DecodeVehicleJSON(doc)
		if err != nil {
			t.Errorf("DecodeVehicleJSON(%q) failed: %v", doc, err)
			continue
		}
		if vehicle["model"] != "Transit" {
			t.Errorf("DecodeVehicleJSON(%q): expected model Transit, got %v", doc, vehicle["model"])
		}
	}
}

func TestDecodeVehicleJSONRejectsGarbage(t *testing.T) {
	// Repair collapses free text to "{}", so the empty-map check is what
	// actually catches these.
	cases := []string{
		"not a document at all {{{",
		"{}",
		"null",
		"",
	}
	for _, doc := range cases {
		if _, err := DecodeVehicleJSON(doc); err == nil {
			t.Errorf("DecodeVehicleJSON(%q): expected error for featureless input", doc)
		}
	}
}

func TestRenderMarkdownHTML(t *testing.T) {
	html, err := RenderMarkdownHTML("# Report\n\n- fee: **1450.25**\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1>") || !strings.Contains(out, "<strong>") {
		t.Errorf("unexpected HTML output: %s", out)
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("# Report\n\n- fee: 1450.25\n") {
		t.Error("well-formed markdown should validate")
	}
	if !ValidateMarkdown("plain text is still markdown") {
		t.Error("plain text parses as markdown")
	}
}
