package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jmagsino/shs-registrar-api/internal/models"
)

func newRBACRouter(handler gin.HandlerFunc, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	})
	router.GET("/enrollments/:id", handler, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serveRBAC(router *gin.Engine, path string) int {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestRBACAllowsListedRole(t *testing.T) {
	router := newRBACRouter(
		RBAC(string(models.RoleRegistrar)),
		&models.JWTClaims{UserID: "user-1", Role: models.RoleRegistrar},
	)
	if code := serveRBAC(router, "/enrollments/enr-123"); code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", code)
	}
}

func TestRBACForbidsUnlistedRole(t *testing.T) {
	router := newRBACRouter(
		RBAC(string(models.RoleRegistrar)),
		&models.JWTClaims{UserID: "user-1", Role: models.RoleStudent},
	)
	if code := serveRBAC(router, "/enrollments/enr-123"); code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", code)
	}
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	router := newRBACRouter(RBAC(string(models.RoleRegistrar)), nil)
	if code := serveRBAC(router, "/enrollments/enr-123"); code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", code)
	}
}

func TestRBACOwnedAdmitsResourceOwner(t *testing.T) {
	owns := func(ctx context.Context, resourceID, userID string) (bool, error) {
		return resourceID == "enr-123" && userID == "user-1", nil
	}
	allowed := []string{string(models.RoleSuperAdmin), string(models.RoleRegistrar), string(models.RoleCoordinator)}

	router := newRBACRouter(
		RBACOwned(owns, allowed...),
		&models.JWTClaims{UserID: "user-1", Role: models.RoleStudent},
	)
	if code := serveRBAC(router, "/enrollments/enr-123"); code != http.StatusNoContent {
		t.Fatalf("owner should pass, got status %d", code)
	}
	if code := serveRBAC(router, "/enrollments/enr-999"); code != http.StatusForbidden {
		t.Fatalf("non-owned resource should be forbidden, got status %d", code)
	}
}

func TestRBACOwnedStillAdmitsStaffRoles(t *testing.T) {
	owns := func(ctx context.Context, resourceID, userID string) (bool, error) {
		return false, nil
	}
	router := newRBACRouter(
		RBACOwned(owns, string(models.RoleRegistrar)),
		&models.JWTClaims{UserID: "user-2", Role: models.RoleRegistrar},
	)
	if code := serveRBAC(router, "/enrollments/enr-123"); code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", code)
	}
}
