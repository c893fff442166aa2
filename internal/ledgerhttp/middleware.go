package ledgerhttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nekorytaylor666/stroika-sub000/internal/platform/httpx"
	"github.com/nekorytaylor666/stroika-sub000/internal/shared"
)

// Headers set by the trusted upstream gateway.
const (
	HeaderOrganization   = "X-Organization-ID"
	HeaderUser           = "X-User-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// RequireActor reads the caller from trusted headers and rejects requests without one.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org, errOrg := headerID(r, HeaderOrganization)
		user, errUser := headerID(r, HeaderUser)
		if err := errors.Join(errOrg, errUser); err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithActor(r.Context(), shared.Actor{OrganizationID: org, UserID: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func headerID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil || id <= 0 {
		return 0, fmt.Errorf("%s header missing or invalid: %w", name, shared.ErrUnauthorized)
	}
	return id, nil
}

func actorOf(r *http.Request) shared.Actor {
	actor, _ := shared.ActorFromContext(r.Context())
	return actor
}

// idempotent rejects a replayed Idempotency-Key for module. Keys of failed
// requests are released so the client can retry.
func (h *Handler) idempotent(module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if h.idem == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			actor := actorOf(r)
			if err := h.idem.CheckAndInsert(r.Context(), actor.OrganizationID, key, module); err != nil {
				h.fail(w, r, "idempotency check", err)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				if err := h.idem.Delete(r.Context(), actor.OrganizationID, key, module); err != nil {
					h.logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", err))
				}
			}
		})
	}
}
