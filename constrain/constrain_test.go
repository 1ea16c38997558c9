package constrain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gofhir/fshc/service"
)

const hl7 = "http://hl7.org/fhir/StructureDefinition/"

// fakeOracle resolves identifiers against a fixed record set, by code, URL,
// or record name.
type fakeOracle struct {
	records map[string]service.TypeRecord
}

func (o *fakeOracle) Resolve(identifier string) (service.TypeRecord, bool) {
	rec, ok := o.records[identifier]
	return rec, ok
}

func testOracle() *fakeOracle {
	recs := []service.TypeRecord{
		{Code: "Base", URL: hl7 + "Base", Abstract: true, Kind: service.KindResource},
		{Code: "Resource", URL: hl7 + "Resource", ParentURL: hl7 + "Base", Abstract: true, Kind: service.KindResource},
		{Code: "DomainResource", URL: hl7 + "DomainResource", ParentURL: hl7 + "Resource", Abstract: true, Kind: service.KindResource},
		{Code: "Patient", URL: hl7 + "Patient", ParentURL: hl7 + "DomainResource", Kind: service.KindResource, Derivation: "specialization"},
		{Code: "Practitioner", URL: hl7 + "Practitioner", ParentURL: hl7 + "DomainResource", Kind: service.KindResource, Derivation: "specialization"},
		{Code: "PractitionerRole", URL: hl7 + "PractitionerRole", ParentURL: hl7 + "DomainResource", Kind: service.KindResource, Derivation: "specialization"},
		{Code: "Medication", URL: hl7 + "Medication", ParentURL: hl7 + "DomainResource", Kind: service.KindResource, Derivation: "specialization"},
		{Code: "Observation", URL: hl7 + "Observation", ParentURL: hl7 + "DomainResource", Kind: service.KindResource, Derivation: "specialization"},
		{Code: "Element", URL: hl7 + "Element", Abstract: true, Kind: service.KindComplexType},
		{Code: "Quantity", URL: hl7 + "Quantity", ParentURL: hl7 + "Element", Kind: service.KindComplexType, Derivation: "specialization"},
		{Code: "Duration", URL: hl7 + "Duration", ParentURL: hl7 + "Quantity", Kind: service.KindComplexType, Derivation: "specialization"},
		{Code: "CodeableConcept", URL: hl7 + "CodeableConcept", ParentURL: hl7 + "Element", Kind: service.KindComplexType, Derivation: "specialization"},
		{Code: "string", URL: hl7 + "string", ParentURL: hl7 + "Element", Kind: service.KindPrimitiveType, Derivation: "specialization"},
		{Code: "integer", URL: hl7 + "integer", ParentURL: hl7 + "Element", Kind: service.KindPrimitiveType, Derivation: "specialization"},
	}
	o := &fakeOracle{records: make(map[string]service.TypeRecord)}
	for _, r := range recs {
		o.records[r.Code] = r
		o.records[r.URL] = r
	}

	// Profiles resolve by name and URL but never by bare type code.
	profiles := []struct {
		name string
		rec  service.TypeRecord
	}{
		{"SimpleQuantity", service.TypeRecord{Code: "Quantity", URL: hl7 + "SimpleQuantity", ParentURL: hl7 + "Quantity", Kind: service.KindComplexType, Derivation: "constraint"}},
		{"MoneyQuantity", service.TypeRecord{Code: "Quantity", URL: hl7 + "MoneyQuantity", ParentURL: hl7 + "Quantity", Kind: service.KindComplexType, Derivation: "constraint"}},
		{"us-core-patient", service.TypeRecord{Code: "Patient", URL: "http://example.org/fhir/StructureDefinition/us-core-patient", ParentURL: hl7 + "Patient", Kind: service.KindResource, Derivation: "constraint"}},
	}
	for _, p := range profiles {
		o.records[p.name] = p.rec
		o.records[p.rec.URL] = p.rec
	}
	return o
}

func choiceElement() *service.ElementDefinition {
	return &service.ElementDefinition{
		Path: "Observation.value[x]",
		Min:  0, Max: "1",
		Types: []service.TypeRef{
			{Code: "Quantity"},
			{Code: "CodeableConcept"},
			{Code: "string"},
		},
	}
}

func TestApplyValueNarrowing(t *testing.T) {
	oracle := testOracle()

	t.Run("subset keeps request order and drops the rest", func(t *testing.T) {
		ed := choiceElement()
		err := Apply(ed, []Constraint{{Type: "string"}, {Type: "Quantity"}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "string"}, {Code: "Quantity"}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("profile request lands on its base code slot", func(t *testing.T) {
		ed := choiceElement()
		err := Apply(ed, []Constraint{{Type: "SimpleQuantity"}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Quantity", Profile: []string{hl7 + "SimpleQuantity"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("two profiles of one base accumulate on one slot", func(t *testing.T) {
		ed := choiceElement()
		err := Apply(ed, []Constraint{{Type: "SimpleQuantity"}, {Type: "MoneyQuantity"}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Quantity", Profile: []string{hl7 + "SimpleQuantity", hl7 + "MoneyQuantity"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("one incompatible request fails the whole call", func(t *testing.T) {
		ed := choiceElement()
		before := ed.Clone()
		err := Apply(ed, []Constraint{{Type: "Quantity"}, {Type: "integer"}}, "", oracle)
		var ite *InvalidTypeError
		if !errors.As(err, &ite) {
			t.Fatalf("Apply() error = %v, want InvalidTypeError", err)
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified on failure (-before +after):\n%s", diff)
		}
	})

	t.Run("unknown identifier fails before any matching", func(t *testing.T) {
		ed := choiceElement()
		before := ed.Clone()
		err := Apply(ed, []Constraint{{Type: "Quantity"}, {Type: "NoSuchType"}}, "", oracle)
		var tnf *TypeNotFoundError
		if !errors.As(err, &tnf) {
			t.Fatalf("Apply() error = %v, want TypeNotFoundError", err)
		}
		if tnf.Type != "NoSuchType" {
			t.Errorf("TypeNotFoundError.Type = %q, want %q", tnf.Type, "NoSuchType")
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified on failure (-before +after):\n%s", diff)
		}
	})

	t.Run("specialization needs an abstract anchor", func(t *testing.T) {
		// Duration specializes Quantity, and Quantity is concrete.
		ed := choiceElement()
		err := Apply(ed, []Constraint{{Type: "Duration"}}, "", oracle)
		var nape *NonAbstractParentError
		if !errors.As(err, &nape) {
			t.Fatalf("Apply() error = %v, want NonAbstractParentError", err)
		}
		if nape.Parent != "Quantity" || nape.Requested != "Duration" {
			t.Errorf("NonAbstractParentError = %+v", nape)
		}
	})

	t.Run("empty request list is a no-op", func(t *testing.T) {
		ed := choiceElement()
		before := ed.Clone()
		if err := Apply(ed, nil, "", oracle); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified (-before +after):\n%s", diff)
		}
	})
}

func TestApplyReferenceNarrowing(t *testing.T) {
	oracle := testOracle()

	refElement := func(targets ...string) *service.ElementDefinition {
		return &service.ElementDefinition{
			Path:  "Observation.performer",
			Types: []service.TypeRef{{Code: "Reference", TargetProfile: targets}},
		}
	}

	t.Run("narrow two targets to one", func(t *testing.T) {
		ed := refElement(hl7+"Practitioner", hl7+"PractitionerRole")
		err := Apply(ed, []Constraint{{Type: "Practitioner", Reference: true}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{hl7 + "Practitioner"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("target outside the allowed set fails", func(t *testing.T) {
		ed := refElement(hl7+"Practitioner", hl7+"PractitionerRole")
		before := ed.Clone()
		err := Apply(ed, []Constraint{{Type: "Medication", Reference: true}}, "", oracle)
		var ite *InvalidTypeError
		if !errors.As(err, &ite) {
			t.Fatalf("Apply() error = %v, want InvalidTypeError", err)
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified on failure (-before +after):\n%s", diff)
		}
	})

	t.Run("empty target list admits any resource", func(t *testing.T) {
		ed := refElement()
		err := Apply(ed, []Constraint{{Type: "Medication", Reference: true}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{hl7 + "Medication"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multiple reference targets accumulate in request order", func(t *testing.T) {
		ed := refElement()
		err := Apply(ed, []Constraint{
			{Type: "Practitioner", Reference: true},
			{Type: "PractitionerRole", Reference: true},
		}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{
			hl7 + "Practitioner", hl7 + "PractitionerRole",
		}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("profile target resolves through its parent chain", func(t *testing.T) {
		ed := refElement(hl7 + "Patient")
		err := Apply(ed, []Constraint{{Type: "us-core-patient", Reference: true}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{
			"http://example.org/fhir/StructureDefinition/us-core-patient",
		}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("version marker survives into the target URL", func(t *testing.T) {
		ed := refElement()
		err := Apply(ed, []Constraint{{Type: "Patient|4.0.1", Reference: true}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{hl7 + "Patient|4.0.1"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reference request prefers a Reference slot over CodeableReference", func(t *testing.T) {
		ed := &service.ElementDefinition{
			Path: "Observation.subject",
			Types: []service.TypeRef{
				{Code: "CodeableReference"},
				{Code: "Reference"},
			},
		}
		err := Apply(ed, []Constraint{{Type: "Patient", Reference: true}}, "", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{{Code: "Reference", TargetProfile: []string{hl7 + "Patient"}}}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestApplyWithTargetType(t *testing.T) {
	oracle := testOracle()

	mixed := func() *service.ElementDefinition {
		return &service.ElementDefinition{
			Path: "Observation.value[x]",
			Types: []service.TypeRef{
				{Code: "Quantity"},
				{Code: "CodeableConcept"},
				{Code: "string"},
			},
		}
	}

	t.Run("only the addressed slot changes, in place", func(t *testing.T) {
		ed := mixed()
		err := Apply(ed, []Constraint{{Type: "SimpleQuantity"}}, "Quantity", oracle)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		want := []service.TypeRef{
			{Code: "Quantity", Profile: []string{hl7 + "SimpleQuantity"}},
			{Code: "CodeableConcept"},
			{Code: "string"},
		}
		if diff := cmp.Diff(want, ed.Types); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("target addressing no slot fails", func(t *testing.T) {
		ed := mixed()
		before := ed.Clone()
		err := Apply(ed, []Constraint{{Type: "Patient"}}, "Medication", oracle)
		var inv *InvalidTargetError
		if !errors.As(err, &inv) {
			t.Fatalf("Apply() error = %v, want InvalidTargetError", err)
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified on failure (-before +after):\n%s", diff)
		}
	})

	t.Run("request unreachable from the addressed slot fails", func(t *testing.T) {
		ed := mixed()
		before := ed.Clone()
		err := Apply(ed, []Constraint{{Type: "Patient"}}, "Quantity", oracle)
		var ite *InvalidTypeError
		if !errors.As(err, &ite) {
			t.Fatalf("Apply() error = %v, want InvalidTypeError", err)
		}
		if diff := cmp.Diff(before, ed.Clone()); diff != "" {
			t.Errorf("element was modified on failure (-before +after):\n%s", diff)
		}
	})
}

func TestSplitVersion(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version string
	}{
		{"Patient", "Patient", ""},
		{"Patient|4.0.1", "Patient", "4.0.1"},
		{hl7 + "Patient|4.0.1", hl7 + "Patient", "4.0.1"},
		{"", "", ""},
	}
	for _, tt := range tests {
		name, version := splitVersion(tt.in)
		if name != tt.name || version != tt.version {
			t.Errorf("splitVersion(%q) = (%q, %q), want (%q, %q)", tt.in, name, version, tt.name, tt.version)
		}
	}
}
