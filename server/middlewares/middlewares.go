package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/Luismorlan/factfeed/utils/apperr"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// UserIDKey is the gin context key holding the authenticated user's id.
const UserIDKey = "sub"

// UserID returns the id set by JWT, "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func abort(c *gin.Context, err *apperr.Error) {
	body := gin.H{"code": err.Kind.Code(), "msg": err.Msg}
	if err.Field != "" {
		body["field"] = err.Field
	}
	c.AbortWithStatusJSON(err.Kind.HTTPStatus(), body)
}

// tokenFromRequest reads a bearer token from the Authorization header,
// falling back to the "token" query parameter.
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
	}
	return c.Query("token")
}

// ParseToken verifies an HS256 token and returns its subject.
func ParseToken(secret []byte, token string) (string, error) {
	if len(secret) == 0 {
		return "", jwt.ErrTokenUnverifiable
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenRequiredClaimMissing
	}
	return claims.Subject, nil
}

// JWT authenticates the request when it carries a token and stores the
// user's id under UserIDKey. With required set, anonymous requests are
// rejected. A token that does not verify is always rejected.
func JWT(secret []byte, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			if required {
				abort(c, apperr.NewUnauthorized("empty jwt token"))
				return
			}
			c.Next()
			return
		}

		userID, err := ParseToken(secret, token)
		if err != nil {
			abort(c, apperr.NewUnauthorized("invalid jwt token: %s", err.Error()))
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// AccessLog logs every request once it has been served.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  status,
			"latency": time.Since(start).Round(time.Millisecond).String(),
			"ip":      c.ClientIP(),
		})
		if userID := UserID(c); userID != "" {
			entry = entry.WithField("user_id", userID)
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}
