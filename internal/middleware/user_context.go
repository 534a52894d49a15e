package middleware

import (
	"sales-ims/internal/models"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "CurrentUser"

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
