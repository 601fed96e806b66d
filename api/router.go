package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devadigapratham/printeta/api/handlers"
)

// Node is what the router needs from the local raft node
type Node interface {
	handlers.Cluster
	ID() string
	State() string
}

// SetupRouter sets up the API routes. membership serves /raft/join and
// /raft/leave and may be nil.
func SetupRouter(node Node, handler *handlers.Handler, membership http.Handler, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	// API group
	api := router.Group("/api/v1")
	api.Use(handler.RaftLeaderMiddleware())
	{
		// Printer endpoints
		api.POST("/printers", handler.CreatePrinter)
		api.GET("/printers", handler.GetPrinters)
		api.GET("/printers/:id/queue", handler.GetPrinterQueue)

		// Filament endpoints
		api.POST("/filaments", handler.CreateFilament)
		api.GET("/filaments", handler.GetFilaments)

		// Print job endpoints
		api.POST("/print_jobs", handler.CreatePrintJob)
		api.GET("/print_jobs", handler.GetPrintJobs)
		api.GET("/print_jobs/:id", handler.GetPrintJob)
		api.POST("/print_jobs/:id/status", handler.UpdatePrintJobStatus)

		// Estimation endpoints
		api.GET("/print_jobs/:id/eta", handler.GetPrintJobETA)
		api.GET("/print_jobs/:id/timeline", handler.GetPrintJobTimeline)
		api.GET("/print_jobs/:id/progress", handler.GetPrintJobProgress)
		api.GET("/print_jobs/:id/progress/stream", handler.StreamPrintJobProgress)

		api.GET("/snapshot", handler.GetSnapshot)
	}

	// Raft membership, reachable on followers too so they can answer 409
	if membership != nil {
		raftHandler := gin.WrapH(http.StripPrefix("/raft", membership))
		router.POST("/raft/join", raftHandler)
		router.POST("/raft/leave", raftHandler)
	}

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"node_id":     node.ID(),
			"is_leader":   node.Leader(),
			"leader_addr": node.LeaderAddress(),
			"state":       node.State(),
		})
	})

	return router
}

// requestLogger logs one line per request through logrus
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request handled")
	}
}
