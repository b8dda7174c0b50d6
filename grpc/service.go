// Package grpc provides a gRPC service for inspecting a tracker.
//
// The service uses only protobuf well-known types, so clients need no
// generated code:
//
//	evtrack.v1.TrackerService/GetReport  (google.protobuf.Empty)  returns (google.protobuf.Struct)
//	evtrack.v1.TrackerService/Log        (google.protobuf.Empty)  returns (google.protobuf.Empty)
//	evtrack.v1.TrackerService/Reset      (google.protobuf.Empty)  returns (google.protobuf.Empty)
//	evtrack.v1.TrackerService/Flush      (google.protobuf.Empty)  returns (google.protobuf.Struct)
//
// Reports are encoded as in package evtrackpb.
package grpc

import (
	"context"
	"errors"

	"github.com/rbaliyan/evtrack"
	pb "github.com/rbaliyan/evtrack/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "evtrack.v1.TrackerService"

// Full method names
const (
	GetReportMethod = "/" + ServiceName + "/GetReport"
	LogMethod       = "/" + ServiceName + "/Log"
	ResetMethod     = "/" + ServiceName + "/Reset"
	FlushMethod     = "/" + ServiceName + "/Flush"
)

// TrackerServiceServer is the server API for TrackerService.
type TrackerServiceServer interface {
	GetReport(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Log(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Flush(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Service implements TrackerServiceServer.
type Service struct {
	tracker *evtrack.Tracker
}

// New creates a new gRPC service for a tracker.
func New(tracker *evtrack.Tracker) *Service {
	return &Service{tracker: tracker}
}

// Register registers the service with a gRPC server.
func (s *Service) Register(server grpc.ServiceRegistrar) {
	server.RegisterService(&ServiceDesc, s)
}

// GetReport returns the current registry report.
func (s *Service) GetReport(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	msg, err := pb.ReportToProto(s.tracker.Report())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode report: %v", err)
	}
	return msg, nil
}

// Log writes the current report to the tracker log.
func (s *Service) Log(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.tracker.Log(ctx)
	return &emptypb.Empty{}, nil
}

// Reset clears the registry.
func (s *Service) Reset(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.tracker.Reset()
	return &emptypb.Empty{}, nil
}

// Flush logs the report and emits it to the tracker's sinks.
func (s *Service) Flush(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	report, err := s.tracker.Flush(ctx)
	if errors.Is(err, evtrack.ErrTrackerClosed) {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to emit report: %v", err)
	}
	msg, err := pb.ReportToProto(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode report: %v", err)
	}
	return msg, nil
}

func unaryHandler[Req any, Resp any](method string, call func(TrackerServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TrackerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TrackerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for TrackerService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetReport",
			Handler:    unaryHandler(GetReportMethod, TrackerServiceServer.GetReport),
		},
		{
			MethodName: "Log",
			Handler:    unaryHandler(LogMethod, TrackerServiceServer.Log),
		},
		{
			MethodName: "Reset",
			Handler:    unaryHandler(ResetMethod, TrackerServiceServer.Reset),
		},
		{
			MethodName: "Flush",
			Handler:    unaryHandler(FlushMethod, TrackerServiceServer.Flush),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "evtrack/v1/tracker.proto",
}

// Client calls TrackerService over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a TrackerService client.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetReport fetches the current registry report.
func (c *Client) GetReport(ctx context.Context, opts ...grpc.CallOption) (*evtrack.Report, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetReportMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return pb.ProtoToReport(out)
}

// Log asks the server to write its report to the log.
func (c *Client) Log(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, LogMethod, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

// Reset asks the server to clear its registry.
func (c *Client) Reset(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ResetMethod, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

// Flush asks the server to log and emit its report.
func (c *Client) Flush(ctx context.Context, opts ...grpc.CallOption) (*evtrack.Report, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FlushMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return pb.ProtoToReport(out)
}

// Compile-time check that Service implements TrackerServiceServer.
var _ TrackerServiceServer = (*Service)(nil)
