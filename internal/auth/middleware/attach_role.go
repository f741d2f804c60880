package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/ocrp-academy/trainportal/internal/rbac"
)

// AttachFromDB overrides the token's role and tier with the users table,
// so a tier upgrade or role change takes effect without reissuing tokens.
// Unknown subjects keep their claim values when allowClaimFallback is set
// (dev); otherwise they are refused.
func AttachFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)

			var role, tier string
			err := db.QueryRowContext(ctx,
				`SELECT role, tier FROM users WHERE id=$1 OR username=$1`, sub,
			).Scan(&role, &tier)

			switch {
			case err == nil && role != "":
				ctx = rbac.WithRole(ctx, role)
				ctx = WithTier(ctx, tier)
				next.ServeHTTP(w, r.WithContext(ctx))

			case errors.Is(err, sql.ErrNoRows):
				if allowClaimFallback && rbac.RoleFromContext(ctx) != "" {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)

			default:
				if allowClaimFallback && rbac.RoleFromContext(ctx) != "" {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
