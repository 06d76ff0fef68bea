package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/domino14/blobwar/game"
)

// The gRPC service has one unary method. Requests and responses are the
// JSON documents used over NATS, carried in a BytesValue.
const moveMethod = "/blobwar.Bot/Move"

type MoveServer interface {
	Move(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func moveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MoveServer).Move(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: moveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MoveServer).Move(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var moveServiceDesc = grpc.ServiceDesc{
	ServiceName: "blobwar.Bot",
	HandlerType: (*MoveServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Move", Handler: moveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blobwar/bot",
}

func RegisterMoveServer(s grpc.ServiceRegistrar, srv MoveServer) {
	s.RegisterService(&moveServiceDesc, srv)
}

// Move answers a gRPC request. Bot errors travel in the response body.
func (bot *Bot) Move(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(bot.handle(ctx, in.GetValue()))
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(data), nil
}

// GRPCClient asks a bot served over gRPC for moves. It is a
// player.Player.
type GRPCClient struct {
	conn   grpc.ClientConnInterface
	closer func() error
	target string
	req    Request
}

// DialGRPC connects without transport security, for bots on a trusted
// network.
func DialGRPC(target, strategy string, depth int, duration time.Duration) (*GRPCClient, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to bot at %s: %w", target, err)
	}
	c := NewGRPCClient(conn, strategy, depth, duration)
	c.target = target
	c.closer = conn.Close
	return c, nil
}

func NewGRPCClient(conn grpc.ClientConnInterface, strategy string, depth int, duration time.Duration) *GRPCClient {
	return &GRPCClient{
		conn: conn,
		req: Request{
			Strategy:   strategy,
			Depth:      depth,
			DurationMS: duration.Milliseconds(),
		},
	}
}

func (c *GRPCClient) Name() string {
	return fmt.Sprintf("grpc bot %s (%s)", c.target, c.req.Strategy)
}

func (c *GRPCClient) Move(ctx context.Context, cfg game.Configuration) (game.Movement, bool, error) {
	state, err := cfg.Serialize()
	if err != nil {
		return game.Movement{}, false, err
	}
	req := c.req
	req.State = state
	data, err := json.Marshal(req)
	if err != nil {
		return game.Movement{}, false, err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, moveMethod, wrapperspb.Bytes(data), out); err != nil {
		return game.Movement{}, false, err
	}
	return decodeResponse(out.GetValue())
}

func (c *GRPCClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
