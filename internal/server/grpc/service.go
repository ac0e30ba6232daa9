package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

const serviceName = "gophauth.Auth"

// AuthServer is the server API of the gophauth.Auth service.
type AuthServer interface {
	SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Encrypt(context.Context, *EncryptRequest) (*EncryptResponse, error)
	Decrypt(context.Context, *DecryptRequest) (*DecryptResponse, error)
}

// unaryHandler decodes the wire message W into Req, calls the AuthServer
// method and encodes its reply. Interceptors see the wire messages.
func unaryHandler[W proto.Message, Req, Resp any](
	method string,
	newIn func() W,
	decode func(W) (*Req, error),
	call func(AuthServer, context.Context, *Req) (*Resp, error),
	encode func(*Resp) (proto.Message, error),
) grpc.MethodHandler {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			r, err := decode(req.(W))
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			resp, err := call(srv.(AuthServer), ctx, r)
			if err != nil {
				return nil, err
			}
			return encode(resp)
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes gophauth.Auth for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler("SignUp", newStruct, signUpRequestFromProto, AuthServer.SignUp, (*SignUpResponse).toProto)},
		{MethodName: "Login", Handler: unaryHandler("Login", newStruct, loginRequestFromProto, AuthServer.Login, (*LoginResponse).toProto)},
		{MethodName: "WhoAmI", Handler: unaryHandler("WhoAmI", newEmpty, whoAmIRequestFromProto, AuthServer.WhoAmI, (*WhoAmIResponse).toProto)},
		{MethodName: "Logout", Handler: unaryHandler("Logout", newEmpty, logoutRequestFromProto, AuthServer.Logout, (*LogoutResponse).toProto)},
		{MethodName: "Encrypt", Handler: unaryHandler("Encrypt", newStruct, encryptRequestFromProto, AuthServer.Encrypt, (*EncryptResponse).toProto)},
		{MethodName: "Decrypt", Handler: unaryHandler("Decrypt", newStruct, decryptRequestFromProto, AuthServer.Decrypt, (*DecryptResponse).toProto)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/auth",
}

// AuthClient calls gophauth.Auth over cc with the default protobuf codec.
// The bearer token, if any, travels in the "authorization" metadata key.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthClient returns a client for the gophauth.Auth service on cc.
func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

type wireMessage interface {
	toProto() (proto.Message, error)
}

func invoke[W proto.Message, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in wireMessage, out W, decode func(W) (*Resp, error), opts ...grpc.CallOption) (*Resp, error) {
	msg, err := in.toProto()
	if err != nil {
		return nil, err
	}
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, msg, out, opts...); err != nil {
		return nil, err
	}
	return decode(out)
}

func (c *AuthClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error) {
	return invoke(ctx, c.cc, "SignUp", in, newString(), signUpResponseFromProto, opts...)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke(ctx, c.cc, "Login", in, newStruct(), loginResponseFromProto, opts...)
}

func (c *AuthClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	return invoke(ctx, c.cc, "WhoAmI", in, newStruct(), whoAmIResponseFromProto, opts...)
}

func (c *AuthClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke(ctx, c.cc, "Logout", in, newBool(), logoutResponseFromProto, opts...)
}

func (c *AuthClient) Encrypt(ctx context.Context, in *EncryptRequest, opts ...grpc.CallOption) (*EncryptResponse, error) {
	return invoke(ctx, c.cc, "Encrypt", in, newString(), encryptResponseFromProto, opts...)
}

func (c *AuthClient) Decrypt(ctx context.Context, in *DecryptRequest, opts ...grpc.CallOption) (*DecryptResponse, error) {
	return invoke(ctx, c.cc, "Decrypt", in, newString(), decryptResponseFromProto, opts...)
}
