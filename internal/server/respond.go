// Package server exposes the Luna HTTP API: authentication, the dream
// journal, interpretation, and insights. Every response is a one-key
// envelope, {"data": ...} on success or {"error": "..."} on failure.
package server

import "github.com/gin-gonic/gin"

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
