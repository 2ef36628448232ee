package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes rejects requests whose declared length is over max and caps
// the rest, so chunked bodies fail with *http.MaxBytesError on read.
// A non-positive max disables the cap.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if max <= 0 || ctx.Request.Body == nil {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > max {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", max))
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		ctx.Next()
	}
}
