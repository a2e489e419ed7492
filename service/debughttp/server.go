package debughttp

import (
	"net/http"

	"PPClient/logger"
	"PPClient/middleware"
	"PPClient/service/sync"
	"PPClient/tools/safe"

	"github.com/gin-gonic/gin"
)

// Server exposes a local diagnostics surface over the session state:
// the connected flag the UI polls, the directory and the loaded
// thread. Read-only; started from the demo entrypoint only.
type Server struct {
	engine *gin.Engine
	syn    *sync.Synchronizer
}

// New builds the diagnostics server. A non-empty token puts every
// route behind middleware.TokenGuard.
func New(syn *sync.Synchronizer, token string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{engine: gin.New(), syn: syn}
	s.engine.Use(gin.Recovery(), middleware.TokenGuard(token, nil))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/status", s.status)
	s.engine.GET("/conversations", s.conversations)
	s.engine.GET("/messages", s.messages)
	s.engine.GET("/typing", s.typing)
}

func (s *Server) status(c *gin.Context) {
	active := s.syn.Store().Active()
	var activeID int64
	if active != nil {
		activeID = active.ID
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":           s.syn.Connected(),
		"state":               s.syn.State().String(),
		"active_conversation": activeID,
	})
}

func (s *Server) conversations(c *gin.Context) {
	c.JSON(http.StatusOK, s.syn.Store().Conversations())
}

func (s *Server) messages(c *gin.Context) {
	c.JSON(http.StatusOK, s.syn.Store().Messages())
}

func (s *Server) typing(c *gin.Context) {
	c.JSON(http.StatusOK, s.syn.Store().TypingUsers())
}

// Start runs the listener in the background.
func (s *Server) Start(addr string) {
	safe.SafeGo(func() {
		if err := s.engine.Run(addr); err != nil {
			logger.Errorf("[debughttp] listener stopped: %v", err)
		}
	})
}
