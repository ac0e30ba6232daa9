package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/authenticator"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrInvalidKey):
		return status.Error(codes.NotFound, "unknown key")
	case errors.Is(err, common.ErrInvalidCiphertext):
		return status.Error(codes.InvalidArgument, "invalid ciphertext")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func caller(ctx context.Context) (*auth.Claims, error) {
	claims := authenticator.ClaimsFromContext(ctx)
	if claims == nil {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return claims, nil
}

// usableKey rejects the signing key, which is not exposed for data encryption.
func usableKey(id string) error {
	if id == "" {
		return status.Error(codes.InvalidArgument, "empty key id")
	}
	if id == common.SecretKeyName {
		return status.Error(codes.PermissionDenied, "reserved key")
	}
	return nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *SignUpRequest) (*SignUpResponse, error) {
	user, err := s.auth.SignUp(ctx, &models.NewUser{
		Email:      req.Email,
		Password:   req.Password,
		Attributes: req.Attributes,
	})
	if err != nil {
		if !errors.Is(err, common.ErrorValidation) && !errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Error(ctx, "sign up failed", "error", err)
		}
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &SignUpResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	userID, token, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return &LoginResponse{UserID: userID, Token: token}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *WhoAmIRequest) (*WhoAmIResponse, error) {
	claims, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return &WhoAmIResponse{UserID: claims.UserID, Email: claims.Email}, nil
}

// Logout clears the identity of this call only. The token stays valid.
func (s *GRPCServer) Logout(ctx context.Context, _ *LogoutRequest) (*LogoutResponse, error) {
	r := authenticator.RequestFromContext(ctx)
	if r == nil {
		return &LogoutResponse{}, nil
	}
	s.auth.Logout(r)
	return &LogoutResponse{Authenticated: r.Authenticated()}, nil
}

func (s *GRPCServer) Encrypt(ctx context.Context, req *EncryptRequest) (*EncryptResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := usableKey(req.KeyID); err != nil {
		return nil, err
	}

	ct, err := s.keychain.Encrypt(req.KeyID, req.Plaintext)
	if err != nil {
		return nil, toStatus(err)
	}
	return &EncryptResponse{Ciphertext: ct}, nil
}

func (s *GRPCServer) Decrypt(ctx context.Context, req *DecryptRequest) (*DecryptResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := usableKey(req.KeyID); err != nil {
		return nil, err
	}

	pt, err := s.keychain.Decrypt(req.KeyID, req.Ciphertext)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DecryptResponse{Plaintext: pt}, nil
}
