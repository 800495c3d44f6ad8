// internal/api/handler/owner.go
package handler

import (
	"context"
	"net/http"
	"strconv"
)

// OwnerHeader carries the authenticated caller's user id, set by the upstream auth gateway.
const OwnerHeader = "X-User-ID"

type ownerKey struct{}

// WithOwnerID stores the caller's owner id in the context.
func WithOwnerID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerIDFromContext returns the caller's owner id set by RequireOwner.
func OwnerIDFromContext(ctx context.Context) (int64, bool) {
	ownerID, ok := ctx.Value(ownerKey{}).(int64)
	return ownerID, ok
}

// RequireOwner rejects requests without a valid X-User-ID header.
func (h *LedgerHandler) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := strconv.ParseInt(r.Header.Get(OwnerHeader), 10, 64)
		if err != nil || ownerID <= 0 {
			h.respondWithJSON(w, http.StatusUnauthorized, errorBody("missing or invalid "+OwnerHeader+" header", "UNAUTHENTICATED"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), ownerID)))
	})
}
