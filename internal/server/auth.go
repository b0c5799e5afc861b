package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sirsalvo/easyreceipts/internal/common"
)

// requireAuth validates the Bearer token and stashes the owner identity
// in the request context. The token's sub claim is the owner id.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, common.NewUnauthorized("missing bearer token"))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, common.NewUnauthorized("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, common.NewUnauthorized("invalid token"))
			return
		}
		sub, _ := claims["sub"].(string)
		if strings.TrimSpace(sub) == "" {
			writeError(w, common.NewUnauthorized("token has no subject"))
			return
		}

		ctx := common.WithOwnerID(r.Context(), sub)
		if email, _ := claims["email"].(string); email != "" {
			ctx = common.WithEmail(ctx, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
