package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The gophauth.Auth messages travel as protobuf well-known types. Calls
// with named fields use google.protobuf.Struct, single-value replies use
// the wrapper types and argument-less calls take google.protobuf.Empty.

type SignUpRequest struct {
	Email      string
	Password   string
	Attributes map[string]string
}

type SignUpResponse struct {
	UserID string
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResponse struct {
	UserID string
	Token  string
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserID string
	Email  string
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Authenticated bool
}

type EncryptRequest struct {
	KeyID     string
	Plaintext string
}

type EncryptResponse struct {
	Ciphertext string
}

type DecryptRequest struct {
	KeyID      string
	Ciphertext string
}

type DecryptResponse struct {
	Plaintext string
}

func newStruct() *structpb.Struct        { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
func newBool() *wrapperspb.BoolValue     { return &wrapperspb.BoolValue{} }

// stringsStruct builds a Struct of string values.
func stringsStruct(fields map[string]string) (*structpb.Struct, error) {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return structpb.NewStruct(m)
}

// stringField reads a string field of s. A missing field is "".
func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q: want a string", name)
	}
	return sv.StringValue, nil
}

// stringFields reads every named string field of s in one go.
func stringFields(s *structpb.Struct, dst map[string]*string) error {
	for name, p := range dst {
		v, err := stringField(s, name)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func (m *SignUpRequest) toProto() (proto.Message, error) {
	s, err := stringsStruct(map[string]string{"email": m.Email, "password": m.Password})
	if err != nil {
		return nil, err
	}
	if len(m.Attributes) > 0 {
		attrs, err := stringsStruct(m.Attributes)
		if err != nil {
			return nil, err
		}
		s.Fields["attributes"] = structpb.NewStructValue(attrs)
	}
	return s, nil
}

func signUpRequestFromProto(s *structpb.Struct) (*SignUpRequest, error) {
	m := &SignUpRequest{}
	if err := stringFields(s, map[string]*string{"email": &m.Email, "password": &m.Password}); err != nil {
		return nil, err
	}

	v, ok := s.GetFields()["attributes"]
	if !ok {
		return m, nil
	}
	attrs := v.GetStructValue()
	if attrs == nil {
		return nil, fmt.Errorf("field %q: want a struct", "attributes")
	}
	m.Attributes = make(map[string]string, len(attrs.GetFields()))
	for name := range attrs.GetFields() {
		val, err := stringField(attrs, name)
		if err != nil {
			return nil, fmt.Errorf("attributes: %w", err)
		}
		m.Attributes[name] = val
	}
	return m, nil
}

func (m *SignUpResponse) toProto() (proto.Message, error) {
	return wrapperspb.String(m.UserID), nil
}

func signUpResponseFromProto(v *wrapperspb.StringValue) (*SignUpResponse, error) {
	return &SignUpResponse{UserID: v.GetValue()}, nil
}

func (m *LoginRequest) toProto() (proto.Message, error) {
	return stringsStruct(map[string]string{"email": m.Email, "password": m.Password})
}

func loginRequestFromProto(s *structpb.Struct) (*LoginRequest, error) {
	m := &LoginRequest{}
	if err := stringFields(s, map[string]*string{"email": &m.Email, "password": &m.Password}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LoginResponse) toProto() (proto.Message, error) {
	return stringsStruct(map[string]string{"user_id": m.UserID, "token": m.Token})
}

func loginResponseFromProto(s *structpb.Struct) (*LoginResponse, error) {
	m := &LoginResponse{}
	if err := stringFields(s, map[string]*string{"user_id": &m.UserID, "token": &m.Token}); err != nil {
		return nil, err
	}
	return m, nil
}

func (*WhoAmIRequest) toProto() (proto.Message, error) { return newEmpty(), nil }

func whoAmIRequestFromProto(*emptypb.Empty) (*WhoAmIRequest, error) { return &WhoAmIRequest{}, nil }

func (m *WhoAmIResponse) toProto() (proto.Message, error) {
	return stringsStruct(map[string]string{"user_id": m.UserID, "email": m.Email})
}

func whoAmIResponseFromProto(s *structpb.Struct) (*WhoAmIResponse, error) {
	m := &WhoAmIResponse{}
	if err := stringFields(s, map[string]*string{"user_id": &m.UserID, "email": &m.Email}); err != nil {
		return nil, err
	}
	return m, nil
}

func (*LogoutRequest) toProto() (proto.Message, error) { return newEmpty(), nil }

func logoutRequestFromProto(*emptypb.Empty) (*LogoutRequest, error) { return &LogoutRequest{}, nil }

func (m *LogoutResponse) toProto() (proto.Message, error) {
	return wrapperspb.Bool(m.Authenticated), nil
}

func logoutResponseFromProto(v *wrapperspb.BoolValue) (*LogoutResponse, error) {
	return &LogoutResponse{Authenticated: v.GetValue()}, nil
}

func (m *EncryptRequest) toProto() (proto.Message, error) {
	return stringsStruct(map[string]string{"key_id": m.KeyID, "plaintext": m.Plaintext})
}

func encryptRequestFromProto(s *structpb.Struct) (*EncryptRequest, error) {
	m := &EncryptRequest{}
	if err := stringFields(s, map[string]*string{"key_id": &m.KeyID, "plaintext": &m.Plaintext}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EncryptResponse) toProto() (proto.Message, error) {
	return wrapperspb.String(m.Ciphertext), nil
}

func encryptResponseFromProto(v *wrapperspb.StringValue) (*EncryptResponse, error) {
	return &EncryptResponse{Ciphertext: v.GetValue()}, nil
}

func (m *DecryptRequest) toProto() (proto.Message, error) {
	return stringsStruct(map[string]string{"key_id": m.KeyID, "ciphertext": m.Ciphertext})
}

func decryptRequestFromProto(s *structpb.Struct) (*DecryptRequest, error) {
	m := &DecryptRequest{}
	if err := stringFields(s, map[string]*string{"key_id": &m.KeyID, "ciphertext": &m.Ciphertext}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DecryptResponse) toProto() (proto.Message, error) {
	return wrapperspb.String(m.Plaintext), nil
}

func decryptResponseFromProto(v *wrapperspb.StringValue) (*DecryptResponse, error) {
	return &DecryptResponse{Plaintext: v.GetValue()}, nil
}
