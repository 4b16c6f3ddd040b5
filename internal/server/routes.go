package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BasePath is where the todo resource is mounted.
const BasePath = "/api/todos"

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	todos := r.Group(BasePath)
	todos.GET("", s.listTodos)
	todos.POST("", s.createTodo)
	todos.GET("/ws", s.watchTodos)
	todos.PUT("/:id", s.updateTodo)
	todos.DELETE("/:id", s.deleteTodo)

	return r
}
