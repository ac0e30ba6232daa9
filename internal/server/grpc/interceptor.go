package grpc

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/authenticator"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// metadataAuthorizationKey is the lower-cased form gRPC uses for metadata keys.
const metadataAuthorizationKey = "authorization"

// requestFromMetadata copies the authorization metadata into a fresh
// per-call authenticator.Request.
func requestFromMetadata(ctx context.Context) *authenticator.Request {
	header := http.Header{}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, v := range md.Get(metadataAuthorizationKey) {
			header.Add(common.AuthorizationHeaderName, v)
		}
	}
	return authenticator.NewRequest(header)
}

// identityInterceptor runs the authenticator middleware for every call. The
// handler always runs; methods that need a caller check for claims.
func (s *GRPCServer) identityInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	r := requestFromMetadata(ctx)
	ctx = authenticator.WithRequest(ctx, r)

	var (
		resp any
		err  error
	)
	s.auth.Middleware(ctx, r, func() {
		resp, err = handler(ctx, req)
	})
	return resp, err
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
