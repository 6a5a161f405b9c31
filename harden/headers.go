package harden

import "net/http"

// Middleware augments an http.Handler.
type Middleware func(http.Handler) http.Handler

// SecurityHeaders returns a middleware that sets the assembled policy header
// and every present auxiliary header on each response before delegating to
// the next handler. It never short-circuits the chain and never inspects the
// request. The policy is assembled per request because the script-src and
// style-src expressions may be functions.
func SecurityHeaders(ctx *BuildContext) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ph := AssemblePolicy(ctx.Config, ctx.Nonce)
			w.Header().Set(ph.Name, ph.Value)
			for _, h := range ph.Aux {
				w.Header().Set(h.Name, h.Value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
