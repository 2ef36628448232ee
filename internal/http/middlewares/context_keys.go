package middlewares

import "github.com/gin-gonic/gin"

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxIdentity  = "auth.identity"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxAuthType  = "auth.type"
)

const (
	AuthTypeCookie = "cookie"
	AuthTypeBearer = "bearer"
)

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxIdentity)
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, CtxUserID)
}

func stringFromContext(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func requestID(c *gin.Context) string {
	if id, ok := stringFromContext(c, CtxRequestID); ok {
		return id
	}
	return c.GetHeader(requestIDHeader)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": requestID(c),
		},
	})
}
