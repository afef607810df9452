// Package service 以 gRPC 对外提供识别结果
package service

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/cardsight/internal/logger"
	"github.com/zoeyai/cardsight/pkg/battle"
	"github.com/zoeyai/cardsight/pkg/recognize"
)

// ServiceName gRPC 服务名
const ServiceName = "cardsight.StateService"

// Recognizer 识别入口，由 battle.Engine 实现
type Recognizer interface {
	Scene() (string, bool, error)
	Enemies() (recognize.RoundResult, error)
	Snapshot() (battle.Snapshot, error)
}

// Server StateService 实现。引擎不支持并发，所有调用串行执行
type Server struct {
	mu     sync.Mutex
	engine Recognizer
}

// NewServer 创建服务
func NewServer(engine Recognizer) *Server {
	return &Server{engine: engine}
}

// Swap 替换引擎，等待进行中的调用结束后生效
func (s *Server) Swap(engine Recognizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
	logger.Info("识别引擎已更新")
}

// Register 注册到 gRPC 服务器
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
}

// Serve 在 addr 上监听，ctx 结束时优雅停止
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	gs := grpc.NewServer()
	s.Register(gs)

	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()

	logger.Info("gRPC 服务已启动: %s", lis.Addr())
	return gs.Serve(lis)
}

// call 串行执行 fn，并记录请求 ID 与耗时
func (s *Server) call(method string, fn func(Recognizer) (map[string]interface{}, error)) (*structpb.Struct, error) {
	id := uuid.NewString()
	start := time.Now()

	s.mu.Lock()
	fields, err := fn(s.engine)
	s.mu.Unlock()

	elapsed := logger.Elapsed(start)
	logger.LogEvent(logger.EventRPC, err == nil, elapsed, method+" "+id)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "%s: %v", method, err)
	}

	fields["request_id"] = id
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "编码结果失败: %v", err)
	}
	return out, nil
}

// Scene 当前场景
func (s *Server) Scene(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.call("Scene", func(r Recognizer) (map[string]interface{}, error) {
		name, ok, err := r.Scene()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"found": ok, "scene": name}, nil
	})
}

// Enemies 敌人数量与意图
func (s *Server) Enemies(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.call("Enemies", func(r Recognizer) (map[string]interface{}, error) {
		res, err := r.Enemies()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"count":   res.Count,
			"intents": toList(res.Labels),
		}, nil
	})
}

// Snapshot HUD 数值与敌人意图
func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.call("Snapshot", func(r Recognizer) (map[string]interface{}, error) {
		snap, err := r.Snapshot()
		if err != nil {
			return nil, err
		}
		out := make(map[string]interface{}, len(snap.Fields)+2)
		for k, v := range snap.Fields {
			out[k] = v
		}
		out["enemy_count"] = snap.EnemyCount
		out["enemy_intents"] = toList(snap.EnemyIntents)
		return out, nil
	})
}

func toList(labels []string) []interface{} {
	list := make([]interface{}, len(labels))
	for i, l := range labels {
		list[i] = l
	}
	return list
}
