package auth

import (
	"context"
	"strconv"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// StudentIDFromContext returns the authenticated numeric user id, or 0.
func StudentIDFromContext(ctx context.Context) int {
	n, _ := strconv.Atoi(SubjectFromContext(ctx))
	return n
}
