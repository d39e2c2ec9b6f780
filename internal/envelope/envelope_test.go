package envelope

import (
	"encoding/json"
	"testing"
)

func TestBuildOKWithNoErrors(t *testing.T) {
	env := NewBuilder("sync").SetData(map[string]int{"installed": 3}).Build()
	if !env.OK {
		t.Error("Build() should be ok when no errors were recorded")
	}
	if env.Version != "v1" {
		t.Errorf("Version = %q, want v1", env.Version)
	}
}

func TestBuildNotOKWithErrors(t *testing.T) {
	env := NewBuilder("sync").Fail("BackendUnavailable", "aur: no candidate binary found").Build()
	if env.OK {
		t.Error("Build() should not be ok once an error was recorded")
	}
	if len(env.Errors) != 1 {
		t.Errorf("Errors = %+v, want one entry", env.Errors)
	}
}

func TestMarshalProducesExpectedShape(t *testing.T) {
	env := NewBuilder("lint").Warn("CrossBackendConflict", "bat declared twice").Build()
	raw, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	for _, key := range []string{"version", "command", "ok", "warnings", "errors", "meta"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("envelope JSON missing key %q", key)
		}
	}
}

func TestMetaFlattensExtraFields(t *testing.T) {
	env := NewBuilder("sync").WithMeta("backends_skipped", 1).Build()
	raw, err := json.Marshal(env.Meta)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if decoded["backends_skipped"] != float64(1) {
		t.Errorf("meta JSON = %v, want backends_skipped=1", decoded)
	}
}
