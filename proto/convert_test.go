package evtrackpb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/evtrack"
)

func sampleReport() *evtrack.Report {
	return &evtrack.Report{
		ID:      evtrack.NewID(),
		Name:    "convert",
		TakenAt: time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC),
		Objects: []evtrack.ObjectReport{
			{ID: 0, Type: "*main.form", Events: []evtrack.EventCount{
				{Name: "change", Handlers: 1},
				{Name: "submit", Handlers: 2},
			}},
			{ID: 4, Events: []evtrack.EventCount{{Name: "resize", Handlers: 1}}},
		},
	}
}

func TestReportConversion(t *testing.T) {
	r := sampleReport()
	s, err := ReportToProto(r)
	if err != nil {
		t.Fatalf("ReportToProto failed: %v", err)
	}

	if got := s.Fields["name"].GetStringValue(); got != "convert" {
		t.Errorf("expected name field, got %q", got)
	}
	objects := s.Fields["objects"].GetListValue().GetValues()
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
	id := objects[1].GetStructValue().Fields["id"].GetNumberValue()
	if id != 4 {
		t.Errorf("expected object id 4, got %v", id)
	}

	back, err := ProtoToReport(s)
	if err != nil {
		t.Fatalf("ProtoToReport failed: %v", err)
	}
	if diff := cmp.Diff(r, back); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestNilReport(t *testing.T) {
	s, err := ReportToProto(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Fields) != 0 {
		t.Errorf("expected empty struct, got %v", s.Fields)
	}
	if r, err := ProtoToReport(nil); r != nil || err != nil {
		t.Errorf("expected nil report, got %v, %v", r, err)
	}
}

func TestObjectConversion(t *testing.T) {
	r := sampleReport()
	s, err := ObjectToProto(&r.Objects[0])
	if err != nil {
		t.Fatal(err)
	}
	back, err := ProtoToObject(s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&r.Objects[0], back); diff != "" {
		t.Errorf("object mismatch (-want +got):\n%s", diff)
	}
}

func TestReportsConversion(t *testing.T) {
	reports := []*evtrack.Report{sampleReport(), sampleReport()}
	s, err := ReportsToProto(reports)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ProtoToReports(s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(reports, back); diff != "" {
		t.Errorf("reports mismatch (-want +got):\n%s", diff)
	}

	empty, err := ReportsToProto(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := empty.Fields["reports"].GetListValue().GetValues(); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}
