package walker

import (
	"testing"

	"github.com/gofhir/fshc/service"
)

func observationSnapshot() *service.StructureDefinition {
	return &service.StructureDefinition{
		ID:   "Observation",
		URL:  "http://hl7.org/fhir/StructureDefinition/Observation",
		Type: "Observation",
		Snapshot: []service.ElementDefinition{
			{ID: "Observation", Path: "Observation", Min: 0, Max: "*"},
			{ID: "Observation.status", Path: "Observation.status", Min: 1, Max: "1", Types: []service.TypeRef{{Code: "code"}}},
			{ID: "Observation.code", Path: "Observation.code", Min: 1, Max: "1", Types: []service.TypeRef{{Code: "CodeableConcept"}}},
			{ID: "Observation.value[x]", Path: "Observation.value[x]", Min: 0, Max: "1", Types: []service.TypeRef{
				{Code: "Quantity"}, {Code: "string"},
			}},
			{ID: "Observation.note", Path: "Observation.note", Min: 0, Max: "*", Types: []service.TypeRef{{Code: "Annotation"}}},
		},
	}
}

type fakeSnapshots map[string]*service.StructureDefinition

func (s fakeSnapshots) Snapshot(identifier string) (*service.StructureDefinition, bool) {
	sd, ok := s[identifier]
	return sd, ok
}

func TestFromSnapshotCopies(t *testing.T) {
	sd := observationSnapshot()
	l := FromSnapshot(sd)

	l.Elements[1].Min = 0
	if sd.Snapshot[1].Min != 1 {
		t.Error("mutating the list changed the source snapshot")
	}
	if l.Root != "Observation" {
		t.Errorf("Root = %q, want Observation", l.Root)
	}
}

func TestFind(t *testing.T) {
	l := FromSnapshot(observationSnapshot())

	tests := []struct {
		rulePath string
		wantPath string
	}{
		{"", "Observation"},
		{"status", "Observation.status"},
		{"value[x]", "Observation.value[x]"},
		{"valueQuantity", "Observation.value[x]"},
		{"valueString", "Observation.value[x]"},
	}
	for _, tt := range tests {
		i := l.Find(tt.rulePath)
		if i < 0 {
			t.Errorf("Find(%q) = -1", tt.rulePath)
			continue
		}
		if l.Elements[i].Path != tt.wantPath {
			t.Errorf("Find(%q) = %q, want %q", tt.rulePath, l.Elements[i].Path, tt.wantPath)
		}
	}

	for _, miss := range []string{"valueInteger", "nothing", "status.coding"} {
		if i := l.Find(miss); i >= 0 {
			t.Errorf("Find(%q) = %d, want -1", miss, i)
		}
	}
}

func TestChoiceVariant(t *testing.T) {
	l := FromSnapshot(observationSnapshot())

	if code, ok := l.ChoiceVariant("valueString"); !ok || code != "string" {
		t.Errorf("ChoiceVariant(valueString) = (%q, %v), want (string, true)", code, ok)
	}
	if _, ok := l.ChoiceVariant("value[x]"); ok {
		t.Error("ChoiceVariant(value[x]) = true, want false for the bare choice path")
	}
	if _, ok := l.ChoiceVariant("status"); ok {
		t.Error("ChoiceVariant(status) = true, want false for a non-choice element")
	}
}

func TestRebase(t *testing.T) {
	l := FromSnapshot(observationSnapshot())
	l.Rebase("MyModel")

	if l.Root != "MyModel" {
		t.Fatalf("Root = %q, want MyModel", l.Root)
	}
	if l.Elements[0].Path != "MyModel" || l.Elements[0].ID != "MyModel" {
		t.Errorf("root element = %+v", l.Elements[0])
	}
	if i := l.Find("status"); i < 0 || l.Elements[i].Path != "MyModel.status" {
		t.Errorf("status not reachable after rebase")
	}
}

func TestFindOrUnfold(t *testing.T) {
	snaps := fakeSnapshots{
		"CodeableConcept": {
			Type: "CodeableConcept",
			Snapshot: []service.ElementDefinition{
				{ID: "CodeableConcept", Path: "CodeableConcept"},
				{ID: "CodeableConcept.coding", Path: "CodeableConcept.coding", Max: "*", Types: []service.TypeRef{{Code: "Coding"}}},
				{ID: "CodeableConcept.text", Path: "CodeableConcept.text", Max: "1", Types: []service.TypeRef{{Code: "string"}}},
			},
		},
		"Coding": {
			Type: "Coding",
			Snapshot: []service.ElementDefinition{
				{ID: "Coding", Path: "Coding"},
				{ID: "Coding.system", Path: "Coding.system", Max: "1", Types: []service.TypeRef{{Code: "uri"}}},
				{ID: "Coding.code", Path: "Coding.code", Max: "1", Types: []service.TypeRef{{Code: "code"}}},
			},
		},
	}

	t.Run("unfolds one level", func(t *testing.T) {
		l := FromSnapshot(observationSnapshot())
		i := l.FindOrUnfold("code.text", snaps)
		if i < 0 {
			t.Fatal("FindOrUnfold(code.text) = -1")
		}
		if l.Elements[i].Path != "Observation.code.text" {
			t.Errorf("path = %q", l.Elements[i].Path)
		}
		// Unfolded children sit directly after their parent.
		parent := l.Index("Observation.code")
		if got := l.Index("Observation.code.coding"); got != parent+1 {
			t.Errorf("coding at %d, want %d", got, parent+1)
		}
	})

	t.Run("unfolds transitively", func(t *testing.T) {
		l := FromSnapshot(observationSnapshot())
		i := l.FindOrUnfold("code.coding.code", snaps)
		if i < 0 {
			t.Fatal("FindOrUnfold(code.coding.code) = -1")
		}
		if l.Elements[i].Path != "Observation.code.coding.code" {
			t.Errorf("path = %q", l.Elements[i].Path)
		}
	})

	t.Run("polymorphic elements do not unfold", func(t *testing.T) {
		l := FromSnapshot(observationSnapshot())
		if i := l.FindOrUnfold("value[x].text", snaps); i >= 0 {
			t.Errorf("FindOrUnfold through a choice element = %d, want -1", i)
		}
	})

	t.Run("unknown type does not unfold", func(t *testing.T) {
		l := FromSnapshot(observationSnapshot())
		if i := l.FindOrUnfold("note.author", snaps); i >= 0 {
			t.Errorf("FindOrUnfold(note.author) = %d, want -1", i)
		}
	})
}

func TestInsert(t *testing.T) {
	l := FromSnapshot(observationSnapshot())

	t.Run("child goes after its parent's last descendant", func(t *testing.T) {
		pos := l.Insert(service.ElementDefinition{
			ID: "Observation.status.extra", Path: "Observation.status.extra",
		})
		if want := l.Index("Observation.status") + 1; pos != want {
			t.Errorf("Insert() = %d, want %d", pos, want)
		}
	})

	t.Run("top-level element goes to the end", func(t *testing.T) {
		pos := l.Insert(service.ElementDefinition{
			ID: "Observation.extra", Path: "Observation.extra",
		})
		if want := len(l.Elements) - 1; pos != want {
			t.Errorf("Insert() = %d, want %d", pos, want)
		}
	})
}
