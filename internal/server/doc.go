// Package server provides the HTTP API, middleware, and the OAuth loopback callback.
//
// # Routes
//
//	POST   /api/process-image   multipart "image", optional ?mode=multi|single
//	GET    /api/history         ?limit=N, owner-scoped
//	DELETE /api/history/{id}    owner-scoped, 404 for foreign records
//	POST   /api/playlists       {title, videoIds}, Authorization: Bearer <google token>
//	GET    /health
//	GET    /metrics             Prometheus exposition
//
// # Ownership
//
// The server performs no login. An upstream proxy sets [OwnerHeader]; requests without it are
// anonymous, resolve images without recording history, and cannot read or delete history.
//
// # Router Infrastructure
//
// [BasicRouter] registers "METHOD /path" patterns on an [http.ServeMux] and wraps each route with
// [Middleware] in reverse order (last added executes first). [Server.Handler] adds CORS around
// the whole router so preflight requests never reach route handlers.
//
// # Errors
//
// Sentinel errors from the shared package map to statuses in one place: preconditions are 400,
// missing credentials 401, unknown or foreign history 404, partial exports 502 with the partial
// result, and everything else 500 with a generic message.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, exchanges the authorization code for a token and
// sends the result through a channel. It only processes one callback.
package server
