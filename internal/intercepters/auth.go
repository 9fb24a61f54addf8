// Package intercepters holds the gRPC unary interceptors: bearer-token
// authentication and zap-backed request logging.
package intercepters

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/linkshelf/internal/app/service"
	"github.com/atinyakov/linkshelf/internal/middleware"
)

// WithJWT requires "authorization: Bearer <token>" metadata on every method
// except those listed in public, and injects the token's user id under
// middleware.UserIDKey.
func WithJWT(auth service.AuthIface, public ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]struct{}, len(public))
	for _, m := range public {
		open[m] = struct{}{}
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := open[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "Access denied. No token provided.")
		}

		token, ok := middleware.BearerToken(values[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization header")
		}

		claims, err := auth.ParseRawJWT(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "Invalid token.")
		}

		ctx = context.WithValue(ctx, middleware.UserIDKey, claims.UserID)
		return handler(ctx, req)
	}
}
