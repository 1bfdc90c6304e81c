package middleware

import "github.com/gin-gonic/gin"

// Fail writes the error envelope every denial and handler error uses.
// Codes are machine-readable; messages stay generic so responses leak
// nothing about resource existence or which check failed.
func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// Abort is Fail plus short-circuiting the middleware chain.
func Abort(c *gin.Context, status int, code, message string) {
	Fail(c, status, code, message)
	c.Abort()
}
