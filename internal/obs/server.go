package obs

import (
	"context"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var serverStartTime = time.Now()

// StatusProvider lets the debug server report live app state without
// importing internal/app (which would create an import cycle, since
// internal/app imports obs for its metrics).
type StatusProvider interface {
	Selection() (id string, playing bool)
}

// Server is a read-only, localhost-bound debug HTTP server: /healthz,
// /metrics, and /status. It never exposes control endpoints — yp is a
// single-user terminal app, there is no remote-control surface to guard
// here, unlike the teacher's session API.
type Server struct {
	httpSrv *http.Server
}

// NewServer builds the debug server. addr should be a loopback address
// such as "127.0.0.1:7777"; binding elsewhere is the caller's call but
// is not recommended since these endpoints carry no auth.
func NewServer(addr string, status StatusProvider) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"uptime_seconds": int64(time.Since(serverStartTime).Seconds()),
			"ram_mb":         float64(mem.Alloc) / 1024 / 1024,
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		})
	})

	r.GET("/status", func(c *gin.Context) {
		if status == nil {
			c.JSON(http.StatusOK, gin.H{"selection": "", "playing": false})
			return
		}
		id, playing := status.Selection()
		c.JSON(http.StatusOK, gin.H{"selection": id, "playing": playing})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})))

	return &Server{httpSrv: &http.Server{Addr: addr, Handler: r}}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
// Bind failures are returned directly so the caller can decide whether
// a dead debug server should abort startup (it shouldn't, by default:
// the TUI is the primary surface).
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	go func() { errC <- s.httpSrv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errC:
		return err
	}
}
