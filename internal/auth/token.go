package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// tokenHeader is the header field devices send their token in.
const tokenHeader = "Auth-Token"

// Gate answers "is this caller authorized". Token format and issuance are
// entirely external; the core only consults the predicate.
type Gate interface {
	Authorized(ctx context.Context, token string) bool
}

// StaticTokenGate authorizes callers against a fixed token set from config.
// In production this would typically be backed by IAM or a secret manager.
type StaticTokenGate struct {
	tokens map[string]struct{}
}

func NewStaticTokenGate(tokens []string) *StaticTokenGate {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return &StaticTokenGate{tokens: set}
}

func (g *StaticTokenGate) Authorized(_ context.Context, token string) bool {
	_, ok := g.tokens[strings.TrimSpace(token)]
	return ok
}

// Token extracts the caller's token from the request.
func Token(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(tokenHeader))
}

// Middleware rejects unauthorized requests before any handler work. The
// ingestion path does not use it — the gateway consults the gate itself so
// the authorization contract stays testable without HTTP.
func Middleware(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.Authorized(c.Request.Context(), Token(c)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "unauthorized", "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
