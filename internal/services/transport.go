package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

type retryKey struct{}

// withRetried marks ctx so a 401 on a request carrying it is not refreshed again.
func withRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryKey{}, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retryKey{}).(bool)
	return v
}

// AuthTransport is an [http.RoundTripper] that attaches the session's bearer token and refreshes it once on 401.
type AuthTransport struct {
	Base      http.RoundTripper
	Session   *session.Manager
	Refresher Refresher
	Logger    *log.Logger

	group singleflight.Group
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

// RoundTrip implements [http.RoundTripper].
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sent := t.Session.AccessToken()

	resp, err := t.send(req, req.Body, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || isRetried(req.Context()) {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		t.logf("cannot replay %s %s without GetBody", req.Method, req.URL.Path)
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err := t.refresh(req.Context(), sent)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser
	if req.GetBody != nil {
		if body, err = req.GetBody(); err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
	}

	replay := req.Clone(withRetried(req.Context()))
	return t.send(replay, body, token)
}

// send clones req with body and the bearer header so the caller's request is not mutated.
func (t *AuthTransport) send(req *http.Request, body io.ReadCloser, token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Body = body
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	return t.base().RoundTrip(out)
}

// refresh returns a fresh access token. A token that changed since sent was issued by a concurrent refresh
// and is reused. Concurrent callers share one call to the [Refresher].
func (t *AuthTransport) refresh(ctx context.Context, sent string) (string, error) {
	if current := t.Session.AccessToken(); current != "" && current != sent {
		return current, nil
	}

	v, err, _ := t.group.Do("refresh", func() (any, error) {
		if current := t.Session.AccessToken(); current != "" && current != sent {
			return current, nil
		}

		rt := t.Session.RefreshToken()
		if rt == "" {
			t.endSession(shared.ErrNoRefreshToken)
			return "", shared.ErrNoRefreshToken
		}

		token, err := t.Refresher.RefreshAccessToken(ctx, rt)
		if err != nil {
			t.endSession(err)
			return "", err
		}
		if err := t.Session.SetAccessToken(token); err != nil {
			return "", err
		}
		t.logf("access token refreshed")
		return token, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}
	return v.(string), nil
}

func (t *AuthTransport) endSession(reason error) {
	t.logf("ending session: %v", reason)
	if err := t.Session.End(reason); err != nil && t.Logger != nil {
		t.Logger.Warn("failed to clear stored tokens", "error", err)
	}
}

func (t *AuthTransport) logf(format string, args ...any) {
	if t.Logger != nil {
		t.Logger.Debugf(format, args...)
	}
}
