package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes annotates the transaction started by nrgin with the
// session user and the ride being acted on, and reports handler errors.
// It must run after nrgin.Middleware and SessionMiddleware.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}
		if uid := UserID(c); uid != "" {
			txn.AddAttribute("carpool.user_id", uid)
		}
		if rideID := c.Param("id"); rideID != "" {
			txn.AddAttribute("carpool.ride_id", rideID)
		}

		// Record error if present.
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
