// Package services implements the client for the video platform's REST API.
//
// # Backend
//
// [BackendService] covers the tracking calls the watch-time tracker makes
// (view, watchtime, history) plus the feed, video detail, analytics, likes and
// history management used by the CLI. Raw Get/Post/Delete helpers back `vtx api`.
//
// # Authentication
//
// The bearer token is read from a [TokenStore] on every request through an
// [oauth2.TokenSource]. Claims are decoded with golang-jwt without verification,
// only to learn the user id and expiry. A token that is expired locally, or a 401
// whose body carries code TOKEN_EXPIRED, clears the stored token and yields
// [shared.ErrTokenExpired].
//
// # Rate limiting
//
// All requests share one [rate.Limiter] configured by api.rate_limit.
//
// # Error Handling
//
//   - [shared.ErrNotAuthenticated] : endpoint requires a session and none is stored
//   - [shared.ErrTokenExpired] : session expired, log in again
//   - [shared.ErrAPIRequest] : non-2xx response, see [StatusError]
//   - [shared.ErrVideoNotFound] : 404 on a video endpoint
package services
