package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"taskboard/backend/internal/apperr"
)

// Owned is any resource that knows its owner.
type Owned interface {
	OwnerID() uuid.UUID
}

// FetchByID looks a resource up by primary key.
type FetchByID[T Owned] func(db *gorm.DB, id uuid.UUID) (T, error)

// RequireOwnership fetches the :id resource and rejects the request unless
// it belongs to the authenticated user: 404 when absent, 403 when foreign.
// List endpoints scope by owner at the query level instead, and the share
// endpoint is intentionally unauthenticated; neither goes through here.
func RequireOwnership[T Owned](db *gorm.DB, fetch FetchByID[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.FromString(c.Param("id"))
		if err != nil {
			abortWith(c, apperr.Validation("Invalid resource ID"))
			return
		}

		requesterID, exists := c.Get(ContextUserIDKey)
		if !exists {
			abortWith(c, apperr.Unauthorized("User not authenticated"))
			return
		}

		resource, err := fetch(db, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWith(c, apperr.NotFound("No resource found with that ID"))
				return
			}
			abortWith(c, apperr.Internal(err))
			return
		}

		if resource.OwnerID() != requesterID.(uuid.UUID) {
			abortWith(c, apperr.Forbidden("You do not have permission to perform this action"))
			return
		}

		c.Next()
	}
}

func abortWith(c *gin.Context, err *apperr.AppError) {
	c.AbortWithStatusJSON(err.Status, err)
}
