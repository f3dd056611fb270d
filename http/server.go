package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/seedgraph/metrics"
)

// GinServer registers handlers on a gin router. The path parameters of a
// route are given to the handler in the request context, under "params".
type GinServer struct {
	router *gin.Engine
}

func NewServer(m *metrics.Metrics) *GinServer {
	router := gin.New()
	router.Use(gin.Recovery())
	if m != nil {
		router.Use(m.Middleware())
	}

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})

	// Ping
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"data": "ok"})
	})

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return &GinServer{router: router}
}

func (s *GinServer) RegisterHandler(path, method string, f http.Handler) {
	s.router.Handle(method, path, func(c *gin.Context) {
		p := make(map[string]string, len(c.Params))
		for _, param := range c.Params {
			p[param.Key] = param.Value
		}

		ctx := context.WithValue(c.Request.Context(), "params", p)
		f.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	})
}

func (s *GinServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
