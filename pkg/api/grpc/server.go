// Package grpcapi implements the loxide.v1.Evaluator gRPC service. Messages
// are google.protobuf.Struct values carrying the same JSON shapes as the
// REST API, so any gRPC client can call it without generated stubs.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/loxide/pkg/scanner"
	"github.com/lemonberrylabs/loxide/pkg/service"
	"github.com/lemonberrylabs/loxide/pkg/store"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "loxide.v1.Evaluator"

// EvaluatorServer is the server API for the Evaluator service.
type EvaluatorServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvaluation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvaluations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEvaluation(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// Server implements EvaluatorServer on top of a service.Service.
type Server struct {
	svc  *service.Service
	log  *zap.Logger
	grpc *grpc.Server
}

// New creates a new gRPC server wrapping the given service.
func New(svc *service.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{svc: svc, log: log}

	gs := grpc.NewServer(grpc.UnaryInterceptor(srv.logUnary))
	RegisterEvaluatorServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

func (s *Server) logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Info("rpc",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("took", time.Since(start)))
	return resp, err
}

// --- Evaluator Service ---

func (s *Server) Scan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	toks, err := s.svc.Scan(stringField(req, "source"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"tokens": toks})
}

func (s *Server) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	units, err := s.svc.Parse(stringField(req, "source"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"units": units})
}

func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ev, err := s.svc.Evaluate(ctx, stringField(req, "source"), stringField(req, "expect"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(ev)
}

func (s *Server) GetEvaluation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ev, err := s.svc.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(ev)
}

func (s *Server) ListEvaluations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(req.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	return toStruct(map[string]interface{}{"evaluations": s.svc.List(limit)})
}

func (s *Server) DeleteEvaluation(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.svc.Delete(stringField(req, "id")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// --- Helpers ---

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// toStruct converts v through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return st, nil
}

func toStatus(err error) error {
	var list scanner.ErrorList
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrSourceTooLarge):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, service.ErrInvalidArgument), errors.As(err, &list):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}

// --- Service registration ---

// RegisterEvaluatorServer registers srv with the gRPC server.
func RegisterEvaluatorServer(s grpc.ServiceRegistrar, srv EvaluatorServer) {
	s.RegisterService(&Evaluator_ServiceDesc, srv)
}

// Evaluator_ServiceDesc is the grpc.ServiceDesc for the Evaluator service.
var Evaluator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: unaryHandler("Scan", EvaluatorServer.Scan)},
		{MethodName: "Parse", Handler: unaryHandler("Parse", EvaluatorServer.Parse)},
		{MethodName: "Evaluate", Handler: unaryHandler("Evaluate", EvaluatorServer.Evaluate)},
		{MethodName: "GetEvaluation", Handler: unaryHandler("GetEvaluation", EvaluatorServer.GetEvaluation)},
		{MethodName: "ListEvaluations", Handler: unaryHandler("ListEvaluations", EvaluatorServer.ListEvaluations)},
		{MethodName: "DeleteEvaluation", Handler: unaryHandler("DeleteEvaluation", EvaluatorServer.DeleteEvaluation)},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[R any](method string, call func(EvaluatorServer, context.Context, *structpb.Struct) (R, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvaluatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EvaluatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
