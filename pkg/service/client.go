package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client StateService 客户端
type Client struct {
	conn *grpc.ClientConn
}

// Dial 连接服务端，默认不加密
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) invoke(ctx context.Context, method string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod(method), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Scene 查询当前场景
func (c *Client) Scene(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "Scene")
}

// Enemies 查询敌人意图
func (c *Client) Enemies(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "Enemies")
}

// Snapshot 查询状态快照
func (c *Client) Snapshot(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "Snapshot")
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}
