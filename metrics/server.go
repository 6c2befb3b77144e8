package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Tsukikage7/cronkit/logger"
)

// Server 暴露指标的 HTTP 服务，实现 app.Service.
type Server struct {
	addr    string
	handler http.Handler
	log     logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer 创建指标服务.
//
// 除指标路径外还提供 /healthz 存活检查.
//
// 示例:
//
//	collector := metrics.MustNewMetrics(cfg)
//	srv := metrics.NewServer(collector, ":9090", log)
func NewServer(provider HandlerProvider, addr string, log logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(provider.GetPath(), provider.GetHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if addr == "" {
		addr = ":9090"
	}
	return &Server{addr: addr, handler: mux, log: log}
}

// Start 启动指标服务，阻塞到 ctx 结束或服务出错.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logDebugf("指标服务启动 [addr:%s]", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		// 上下文取消，正常退出
	}
	return nil
}

// Stop 停止指标服务.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logDebugf("指标服务停止中...")
	return srv.Shutdown(ctx)
}

// Name 返回服务名称.
func (s *Server) Name() string {
	return "metrics"
}

// Addr 返回实际监听地址，未启动时返回配置地址.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Handler 返回 HTTP Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) logDebugf(format string, args ...any) {
	if s.log != nil {
		s.log.Debugf("[Metrics] "+format, args...)
	}
}
