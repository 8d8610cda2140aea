package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the Evaluator service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, fields map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Scan(ctx context.Context, source string) (*structpb.Struct, error) {
	return c.call(ctx, "Scan", map[string]interface{}{"source": source})
}

func (c *Client) Parse(ctx context.Context, source string) (*structpb.Struct, error) {
	return c.call(ctx, "Parse", map[string]interface{}{"source": source})
}

// Evaluate runs source. An empty expect accepts any value kind.
func (c *Client) Evaluate(ctx context.Context, source, expect string) (*structpb.Struct, error) {
	return c.call(ctx, "Evaluate", map[string]interface{}{"source": source, "expect": expect})
}

func (c *Client) GetEvaluation(ctx context.Context, id string) (*structpb.Struct, error) {
	return c.call(ctx, "GetEvaluation", map[string]interface{}{"id": id})
}

func (c *Client) ListEvaluations(ctx context.Context, limit int) (*structpb.Struct, error) {
	return c.call(ctx, "ListEvaluations", map[string]interface{}{"limit": limit})
}

func (c *Client) DeleteEvaluation(ctx context.Context, id string) error {
	in, err := structpb.NewStruct(map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, "/"+ServiceName+"/DeleteEvaluation", in, new(emptypb.Empty))
}
