package config

import "testing"

func TestParseFragmentUnknownTopLevelNodeWarns(t *testing.T) {
	frag, err := ParseFragment("declarch.kdl", []byte(`
"not a valid backend name" {
    bat
}
`))
	if err != nil {
		t.Fatalf("ParseFragment() failed: %v", err)
	}
	if len(frag.Groups) != 0 {
		t.Errorf("Groups = %+v, want none for an unrecognized top-level node", frag.Groups)
	}
	var found bool
	for _, d := range frag.Diagnostics {
		if d.Severity == SeverityWarning {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnostics = %+v, want a warning for the unknown top-level node", frag.Diagnostics)
	}
}

func TestParseFragmentKnownBackendNameStaysPackageGroup(t *testing.T) {
	frag, err := ParseFragment("declarch.kdl", []byte(`
aur {
    bat
}
`))
	if err != nil {
		t.Fatalf("ParseFragment() failed: %v", err)
	}
	if len(frag.Groups) != 1 || frag.Groups[0].Backend != "aur" {
		t.Errorf("Groups = %+v, want one aur group", frag.Groups)
	}
	if len(frag.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %+v, want none for a valid backend name", frag.Diagnostics)
	}
}

func TestParseFragmentUnknownBackendFieldErrors(t *testing.T) {
	frag, err := ParseFragment("declarch.kdl", []byte(`
backend "custom" {
    binary "custom-tool"
    install "custom-tool install {packages}"
    retries 3
}
`))
	if err != nil {
		t.Fatalf("ParseFragment() failed: %v", err)
	}
	if len(frag.Backends) != 1 {
		t.Fatalf("Backends = %+v, want one backend def despite the unknown field", frag.Backends)
	}
	var found bool
	for _, d := range frag.Diagnostics {
		if d.Severity == SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnostics = %+v, want an error for the unknown backend field %q", frag.Diagnostics, "retries")
	}
}

func TestParseFragmentUnknownHookPhaseErrors(t *testing.T) {
	frag, err := ParseFragment("declarch.kdl", []byte(`
hook {
    pre-sync "echo ok"
    mid-sync "echo bad"
    "bat:pre-install" "echo backup bat"
}
`))
	if err != nil {
		t.Fatalf("ParseFragment() failed: %v", err)
	}
	if len(frag.Hooks) != 2 {
		t.Fatalf("Hooks = %+v, want the two recognized phases kept", frag.Hooks)
	}
	var found bool
	for _, d := range frag.Diagnostics {
		if d.Severity == SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnostics = %+v, want an error for the unknown hook phase %q", frag.Diagnostics, "mid-sync")
	}
}
