package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/UserUpload/internal/core"
)

// withRequestOrigin tags ctx with the client address and User-Agent so
// ingestion logs can be traced back to the uploader.
func withRequestOrigin(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithOrigin(ctx, core.Origin{
		Channel:    "http",
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.Header.Get("User-Agent"),
	})
}
