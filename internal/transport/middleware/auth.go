package middleware

import (
	"log/slog"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/transport"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

// BearerAuth verifies HS256 tokens issued upstream and puts the subject on
// the request context as the client id. Tokens are never issued here.
func BearerAuth(secret, issuer string, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := transport.BearerToken(r)
			if raw == "" {
				base.HandleError(w, errors.NewUnauthorizedError("missing bearer token", errors.ErrCodeInvalidToken))
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.FromOr(r.Context(), lg).Warn("rejected bearer token", "error", err)
				base.HandleError(w, errors.ErrInvalidToken)
				return
			}

			ctx := errors.ContextWithClientID(r.Context(), claims.Subject)
			ctx = logger.With(ctx, "client_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
