package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/middleware"
	"github.com/noah-isme/interviews-api/internal/models"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext describes the caller for audit entries and department scoping.
// Anonymous requests yield an actor carrying only the client IP.
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{IP: c.ClientIP()}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
		actor.Email = claims.Email
		actor.Role = claims.Role
		actor.DepartmentID = claims.DepartmentID
	}
	return actor
}

// ownUniversityID forces students onto their own record. Staff may act on
// any student.
func ownUniversityID(c *gin.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		return requested, nil
	}
	if requested != "" && requested != claims.UserID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "students may only act on their own record")
	}
	return claims.UserID, nil
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
