package controller

import (
	"strings"

	"pickem/auth"
	"pickem/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RequiredRoles []string
	// SessionScoped routes are participant-facing and require the
	// session credential minted by the token exchange instead of an
	// admin login.
	SessionScoped bool
}

func SetRoutes(r *gin.Engine, db *gorm.DB, cacheStore *persistence.InMemoryStore) {
	routes := make([]RouteInfo, 0)
	routes = append(routes, setupAuthController(db)...)
	routes = append(routes, setupSeasonController(db)...)
	routes = append(routes, setupRoundController(db)...)
	routes = append(routes, setupPickController(db)...)
	routes = append(routes, setupSessionController(db)...)
	routes = append(routes, setupLeaderboardController(db, cacheStore)...)
	routes = append(routes, setupSettingsController(db)...)
	routes = append(routes, setupUserController(db)...)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RequiredRoles))
		}
		if route.SessionScoped {
			handlerfuncs = append(handlerfuncs, SessionMiddleware())
		}
		handlerfuncs = append(handlerfuncs, route.HandlerFunc)
		r.Handle(route.Method, route.Path, handlerfuncs...)
	}
}

func AuthMiddleware(roles []string) gin.HandlerFunc {
	return func(r *gin.Context) {
		authCookie, err := r.Cookie("auth")
		if err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		token, err := auth.ParseToken(authCookie)
		if err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		claims := &auth.Claims{}
		if !token.Valid {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}

		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		r.Set("user_id", claims.UserId)
		if len(roles) == 0 {
			r.Next()
			return
		}

		for _, requiredRole := range roles {
			if utils.Contains(claims.Permissions, requiredRole) {
				r.Next()
				return
			}
		}
		r.JSON(403, gin.H{"error": "Unauthorized"})
		r.Abort()
	}
}

// SessionMiddleware authenticates the participant session credential
// from the token exchange, accepting it as a cookie or a bearer
// header, and scopes the request to the session's (user, round) pair.
func SessionMiddleware() gin.HandlerFunc {
	return func(r *gin.Context) {
		sessionToken, err := r.Cookie("session")
		if err != nil {
			header := r.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				sessionToken = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if sessionToken == "" {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		token, err := auth.ParseToken(sessionToken)
		if err != nil || !token.Valid {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		claims := &auth.SessionClaims{}
		if err := claims.FromJWTClaims(token.Claims); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		if err := claims.Valid(); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		r.Set("session", claims)
		r.Next()
	}
}

func sessionFromContext(c *gin.Context) *auth.SessionClaims {
	value, ok := c.Get("session")
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
