package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofhir/fshc/service"
)

const patientJSON = `{
  "resourceType": "StructureDefinition",
  "id": "Patient",
  "url": "http://hl7.org/fhir/StructureDefinition/Patient",
  "name": "Patient",
  "status": "active",
  "fhirVersion": "4.0.1",
  "kind": "resource",
  "abstract": false,
  "type": "Patient",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/DomainResource",
  "snapshot": {
    "element": [
      {"id": "Patient", "path": "Patient", "min": 0, "max": "*"},
      {
        "id": "Patient.name", "path": "Patient.name", "min": 0, "max": "*",
        "short": "A name for the patient",
        "type": [{"code": "HumanName"}],
        "mustSupport": false, "isSummary": true
      },
      {
        "id": "Patient.generalPractitioner", "path": "Patient.generalPractitioner",
        "min": 0, "max": "*",
        "type": [{
          "code": "Reference",
          "targetProfile": [
            "http://hl7.org/fhir/StructureDefinition/Organization",
            "http://hl7.org/fhir/StructureDefinition/Practitioner"
          ]
        }]
      }
    ]
  }
}`

const profileJSON = `{
  "resourceType": "StructureDefinition",
  "id": "us-core-patient",
  "url": "http://example.org/fhir/StructureDefinition/us-core-patient",
  "name": "USCorePatient",
  "status": "active",
  "kind": "resource",
  "abstract": false,
  "type": "Patient",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Patient"
}`

func loadedStore(t *testing.T) *InMemoryDefinitionStore {
	t.Helper()
	s := NewInMemoryDefinitionStore(0)
	for _, data := range []string{patientJSON, profileJSON} {
		if _, err := s.LoadFromJSON([]byte(data)); err != nil {
			t.Fatalf("LoadFromJSON() error = %v", err)
		}
	}
	return s
}

func TestLoadFromJSON(t *testing.T) {
	s := loadedStore(t)
	if got := s.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}

	sd, ok := s.Snapshot("Patient")
	if !ok {
		t.Fatal("Snapshot(Patient) missed")
	}
	if len(sd.Snapshot) != 3 {
		t.Fatalf("snapshot has %d elements, want 3", len(sd.Snapshot))
	}
	name := sd.Snapshot[1]
	if name.Path != "Patient.name" || name.Max != "*" || !name.IsSummary {
		t.Errorf("element = %+v", name)
	}
	if len(name.Types) != 1 || name.Types[0].Code != "HumanName" {
		t.Errorf("types = %+v", name.Types)
	}
	gp := sd.Snapshot[2]
	if len(gp.Types) != 1 || len(gp.Types[0].TargetProfile) != 2 {
		t.Errorf("reference targets = %+v", gp.Types)
	}
}

func TestResolve(t *testing.T) {
	s := loadedStore(t)

	tests := []struct {
		identifier     string
		wantURL        string
		wantDerivation string
	}{
		{"Patient", "http://hl7.org/fhir/StructureDefinition/Patient", "specialization"},
		{"http://hl7.org/fhir/StructureDefinition/Patient", "http://hl7.org/fhir/StructureDefinition/Patient", "specialization"},
		{"Patient|4.0.1", "http://hl7.org/fhir/StructureDefinition/Patient", "specialization"},
		{"USCorePatient", "http://example.org/fhir/StructureDefinition/us-core-patient", "constraint"},
		{"us-core-patient", "http://example.org/fhir/StructureDefinition/us-core-patient", "constraint"},
	}
	for _, tt := range tests {
		rec, ok := s.Resolve(tt.identifier)
		if !ok {
			t.Errorf("Resolve(%q) missed", tt.identifier)
			continue
		}
		if rec.URL != tt.wantURL || rec.Derivation != tt.wantDerivation {
			t.Errorf("Resolve(%q) = %+v", tt.identifier, rec)
		}
	}

	if _, ok := s.Resolve("NoSuchType"); ok {
		t.Error("Resolve(NoSuchType) hit")
	}
	if _, ok := s.Resolve(""); ok {
		t.Error("Resolve(\"\") hit")
	}
}

func TestProfilesDoNotShadowBaseTypes(t *testing.T) {
	s := loadedStore(t)

	// Both definitions carry type Patient; the bare type code must resolve
	// to the base definition, not the profile.
	rec, ok := s.Resolve("Patient")
	if !ok || rec.URL != "http://hl7.org/fhir/StructureDefinition/Patient" {
		t.Errorf("Resolve(Patient) = %+v, want the base definition", rec)
	}
}

func TestSnapshotRequiresElements(t *testing.T) {
	s := loadedStore(t)
	// The profile was loaded without a snapshot.
	if _, ok := s.Snapshot("USCorePatient"); ok {
		t.Error("Snapshot() returned a definition with no elements")
	}
}

func TestRegisterPreconverted(t *testing.T) {
	s := NewInMemoryDefinitionStore(0)
	s.Register(&service.StructureDefinition{
		ID:   "Quantity",
		URL:  "http://hl7.org/fhir/StructureDefinition/Quantity",
		Name: "Quantity",
		Type: "Quantity",
		Kind: service.KindComplexType,
	})

	rec, ok := s.Resolve("Quantity")
	if !ok || rec.Code != "Quantity" || rec.Kind != service.KindComplexType {
		t.Errorf("Resolve(Quantity) = %+v", rec)
	}
}

func TestLoadFromBundle(t *testing.T) {
	bundle := `{
	  "resourceType": "Bundle",
	  "type": "collection",
	  "entry": [
	    {"resource": ` + patientJSON + `},
	    {"resource": {"resourceType": "ValueSet", "id": "ignored"}},
	    {"resource": ` + profileJSON + `}
	  ]
	}`
	s := NewInMemoryDefinitionStore(0)
	n, err := s.LoadFromJSON([]byte(bundle))
	if err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d definitions, want 2", n)
	}
}

func TestLoadFromJSONRejectsOtherResources(t *testing.T) {
	s := NewInMemoryDefinitionStore(0)
	if _, err := s.LoadFromJSON([]byte(`{"resourceType": "Patient"}`)); err == nil {
		t.Error("LoadFromJSON accepted a non-definition resource")
	}
	if _, err := s.LoadFromJSON([]byte(`not json`)); err == nil {
		t.Error("LoadFromJSON accepted invalid JSON")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "patient.json"), []byte(patientJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewInMemoryDefinitionStore(0)
	n, err := s.LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir() error = %v", err)
	}
	if n != 1 {
		t.Errorf("loaded %d definitions, want 1", n)
	}
}

func TestResolutionCacheCap(t *testing.T) {
	if got := NewInMemoryDefinitionStore(0).ResolutionCacheCap(); got != DefaultCacheSize {
		t.Errorf("ResolutionCacheCap() = %d, want the default %d", got, DefaultCacheSize)
	}
	if got := NewInMemoryDefinitionStore(64).ResolutionCacheCap(); got != 64 {
		t.Errorf("ResolutionCacheCap() = %d, want 64", got)
	}
}

func TestClear(t *testing.T) {
	s := loadedStore(t)
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count() = %d after Clear", s.Count())
	}
	if _, ok := s.Resolve("Patient"); ok {
		t.Error("Resolve hit after Clear")
	}
}
