package identity

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"rental-service/internal/models"
)

const validateTokenMethod = "/identity.v1.IdentityService/ValidateToken"

// GRPCProvider delegates token validation to the identity service. Request
// and response travel as google.protobuf.Struct so no generated stubs are
// needed.
type GRPCProvider struct {
	conn *grpc.ClientConn
}

// DialGRPCProvider connects to the identity service at addr.
func DialGRPCProvider(addr string) (*GRPCProvider, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("identity grpc dial: %w", err)
	}
	return &GRPCProvider{conn: conn}, nil
}

func (p *GRPCProvider) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"token": token})
	if err != nil {
		return models.Actor{}, err
	}
	resp := &structpb.Struct{}
	if err := p.conn.Invoke(ctx, validateTokenMethod, req, resp); err != nil {
		return models.Actor{}, fmt.Errorf("identity validate token: %w", err)
	}
	return actorFromStruct(resp)
}

func (p *GRPCProvider) Close() error {
	return p.conn.Close()
}

func actorFromStruct(resp *structpb.Struct) (models.Actor, error) {
	fields := resp.GetFields()
	if !fields["valid"].GetBoolValue() {
		return models.Actor{}, ErrInvalidToken
	}
	userID := int64(fields["user_id"].GetNumberValue())
	if userID <= 0 {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{UserID: userID, Admin: fields["admin"].GetBoolValue()}, nil
}
