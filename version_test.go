package fshc

import "testing"

func TestFHIRVersionIsValid(t *testing.T) {
	tests := []struct {
		version FHIRVersion
		want    bool
	}{
		{R4, true},
		{R4B, true},
		{R5, true},
		{FHIRVersion("R3"), false},
		{FHIRVersion(""), false},
	}
	for _, tt := range tests {
		if got := tt.version.IsValid(); got != tt.want {
			t.Errorf("FHIRVersion(%q).IsValid() = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestFHIRVersionString(t *testing.T) {
	tests := []struct {
		version FHIRVersion
		want    string
	}{
		{R4, "4.0.1"},
		{R4B, "4.3.0"},
		{R5, "5.0.0"},
		{FHIRVersion("R3"), ""},
	}
	for _, tt := range tests {
		if got := tt.version.VersionString(); got != tt.want {
			t.Errorf("VersionString(%s) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestCorePackage(t *testing.T) {
	name, version, ok := R4.CorePackage()
	if !ok || name != "hl7.fhir.r4.core" || version != "4.0.1" {
		t.Errorf("R4.CorePackage() = (%q, %q, %v)", name, version, ok)
	}
	if _, _, ok := FHIRVersion("R3").CorePackage(); ok {
		t.Error("CorePackage() ok for an unsupported version")
	}
}
