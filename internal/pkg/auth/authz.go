package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
)

type contextKey int

const allowedTenantsKey contextKey = iota

func WithAllowedTenants(ctx context.Context, tenants []string) context.Context {
	return context.WithValue(ctx, allowedTenantsKey, tenants)
}

func GetAllowedTenantsFromContext(ctx context.Context) []string {
	tenants, ok := ctx.Value(allowedTenantsKey).([]string)
	if !ok {
		return []string{}
	}
	return tenants
}

// NewAuthenticator returns a middleware that evaluates each request
// against the supplied rego policy. The policy decides whether the
// request is allowed and which tenants the caller may act on; the
// tenants are stored in the request context for the handlers.
func NewAuthenticator(ctx context.Context, logger *slog.Logger, policies io.Reader) (func(http.Handler) http.Handler, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read policy document: %w", err)
	}

	query, err := rego.New(
		rego.Query("x = data.iot.authz.allow"),
		rego.Module("authz.rego", string(module)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare policy for evaluation: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

			input := map[string]any{
				"method": r.Method,
				"path":   strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/"),
				"token":  token,
			}

			results, err := query.Eval(r.Context(), rego.EvalInput(input))
			if err != nil {
				logger.Error("policy evaluation failed", "err", err.Error())
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if len(results) == 0 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			binding := results[0].Bindings["x"]

			// the policy either answers with a bare boolean or with an
			// object carrying the caller's tenants
			switch decision := binding.(type) {
			case bool:
				if !decision {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			case map[string]any:
				tenants, ok := decision["tenants"].([]any)
				if !ok {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}

				allowed := make([]string, 0, len(tenants))
				for _, t := range tenants {
					if s, ok := t.(string); ok {
						allowed = append(allowed, s)
					}
				}

				ctx := WithAllowedTenants(r.Context(), allowed)
				next.ServeHTTP(w, r.WithContext(ctx))
			default:
				w.WriteHeader(http.StatusUnauthorized)
			}
		})
	}, nil
}
