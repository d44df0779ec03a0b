package respond

import "github.com/gin-gonic/gin"

// JSON writes payload with the given status. It exists so handlers go
// through one chokepoint alongside Error, keeping response encoding uniform.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
