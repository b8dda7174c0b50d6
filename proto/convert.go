// Package evtrackpb converts reports to and from protobuf well-known types.
//
// Reports travel as google.protobuf.Struct so that the HTTP and gRPC
// surfaces need no generated code. Field names match the JSON tags of
// evtrack.Report.
package evtrackpb

import (
	"encoding/json"
	"fmt"

	"github.com/rbaliyan/evtrack"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts any JSON-tagged value to a Struct
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(m)
}

// fromStruct fills a JSON-tagged value from a Struct
func fromStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// ReportToProto converts a report to a Struct.
func ReportToProto(r *evtrack.Report) (*structpb.Struct, error) {
	if r == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	return toStruct(r)
}

// ProtoToReport converts a Struct produced by ReportToProto back to a report.
func ProtoToReport(s *structpb.Struct) (*evtrack.Report, error) {
	if s == nil {
		return nil, nil
	}
	var r evtrack.Report
	if err := fromStruct(s, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ObjectToProto converts a single object report to a Struct.
func ObjectToProto(o *evtrack.ObjectReport) (*structpb.Struct, error) {
	return toStruct(o)
}

// ProtoToObject converts a Struct produced by ObjectToProto back.
func ProtoToObject(s *structpb.Struct) (*evtrack.ObjectReport, error) {
	var o evtrack.ObjectReport
	if err := fromStruct(s, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ReportsToProto wraps a list of reports as {"reports": [...]}.
func ReportsToProto(reports []*evtrack.Report) (*structpb.Struct, error) {
	if reports == nil {
		reports = []*evtrack.Report{}
	}
	return toStruct(struct {
		Reports []*evtrack.Report `json:"reports"`
	}{reports})
}

// ProtoToReports unwraps a Struct produced by ReportsToProto.
func ProtoToReports(s *structpb.Struct) ([]*evtrack.Report, error) {
	var out struct {
		Reports []*evtrack.Report `json:"reports"`
	}
	if err := fromStruct(s, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}
