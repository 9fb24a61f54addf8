// Package grpc exposes the link service over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/intercepters"
	"github.com/atinyakov/linkshelf/internal/middleware"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	addr       string
	logger     *zap.Logger
}

// New builds the server. Resolve is public; every other method needs a
// bearer token in the "authorization" metadata.
func New(svc service.URLServiceIface, auth service.AuthIface, logger *zap.Logger, addr string) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(),
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.WithJWT(auth, ResolveMethod),
		),
	)

	s.RegisterService(&LinksServiceDesc, &LinksHandler{Service: svc, Logger: logger})

	return &Server{
		grpcServer: s,
		addr:       addr,
		logger:     logger,
	}
}

// Start listens on the configured address and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	s.logger.Info("gRPC server listening", zap.String("addr", s.addr))
	return s.Serve(lis)
}

// Serve runs on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// LinksHandler implements LinksServer on top of the link service.
type LinksHandler struct {
	Service service.URLServiceIface
	Logger  *zap.Logger
}

func (h *LinksHandler) Shorten(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "user ID missing in context")
	}

	fields := req.GetFields()
	shortURL, _, err := h.Service.Shorten(ctx, fields["longUrl"].GetStringValue(), fields["title"].GetStringValue(), userID)
	if err != nil {
		return nil, toStatus(err)
	}

	return wrapperspb.String(shortURL), nil
}

func (h *LinksHandler) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	longURL, err := h.Service.Resolve(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(longURL), nil
}

func (h *LinksHandler) List(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "user ID missing in context")
	}

	records, err := h.Service.List(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(records))}
	for _, r := range records {
		item, err := structpb.NewStruct(map[string]any{
			"id":        r.ID,
			"shortId":   r.ShortID,
			"shortUrl":  h.Service.ShortURL(r.ShortID),
			"longUrl":   r.LongURL,
			"title":     r.Title,
			"ownerId":   r.OwnerID,
			"createdAt": r.CreatedAt.Format(time.RFC3339Nano),
			"updatedAt": r.UpdatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out.Values = append(out.Values, structpb.NewStructValue(item))
	}

	return out, nil
}

func (h *LinksHandler) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "user ID missing in context")
	}

	if err := h.Service.Delete(ctx, req.GetValue(), userID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// toStatus maps service error kinds to gRPC codes; storage causes are logged
// upstream and never leave the process.
func toStatus(err error) error {
	msg := service.Message(err)
	switch {
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	default:
		var se *service.Error
		if !errors.As(err, &se) {
			msg = "internal error"
		}
		return status.Error(codes.Internal, msg)
	}
}
