// Package services is the HTTP client for the transcription backend.
//
// # Client
//
// [Client] wraps two [http.Client] values: a plain one for unauthenticated endpoints (login, registration,
// token refresh, password reset, guest mode, health) and an authenticated one whose transport is an
// [AuthTransport].
//
// # Token Refresh
//
// [AuthTransport] attaches "Authorization: Bearer <token>" from the [session.Manager] to every request. When a
// response is 401 and the request has not been replayed yet, it refreshes the access token through the oauth2
// refresh grant and replays the request once. Concurrent 401s share a single refresh call. If the refresh
// fails the session is ended, which notifies subscribers (the TUI routes back to login), and the caller gets
// [shared.ErrSessionExpired]. A 401 on the replay is returned as is.
//
// Login uses the oauth2 resource owner password grant against POST /token.
//
// # Error Handling
//
// Non-2xx responses become [*APIError]. The message comes from the "detail" or "error" field of the payload,
// falling back to a static string. [APIError] unwraps to shared sentinels:
//   - [shared.ErrUpgradeRequired] : quota exceeded, "upgrade_required" set or HTTP 402
//   - [shared.ErrNotAuthenticated] : HTTP 401
//   - [shared.ErrNotFound] : HTTP 404
//   - [shared.ErrServiceUnavailable] : HTTP 502, 503 and 504
//   - [shared.ErrAPIRequest] : everything else
package services
