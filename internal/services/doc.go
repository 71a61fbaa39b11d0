// Package services implements the external collaborators of the resolution pipeline.
//
// # Interfaces
//
// The pipeline depends only on narrow contracts:
//   - [TextDetector] : OCR of one image into a text block
//   - [VideoSearcher] : free-text video search
//   - [VideoDetailer] : bulk video lookup including upload status
//   - [PlaylistWriter] : playlist creation and item append under a delegated credential
//
// # Google Implementations
//
// [VisionService] calls Cloud Vision images:annotate with TEXT_DETECTION.
// [YouTubeService] calls the YouTube Data API v3. Reads use the API key;
// playlist writes use an [oauth2.Token] supplied per call, refreshed through
// the [oauth2.Config] when one is configured.
//
// Both share one JSON transport guarded by a [gobreaker.CircuitBreaker] per API.
// Server errors and transport failures trip the breaker; client errors do not.
//
// # Caching
//
// [CachedSearcher] memoizes searches through a [cache.Cache].
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrAPIRequest] : the provider returned an error or malformed response
//   - [shared.ErrServiceUnavailable] : the circuit breaker is open
//   - [shared.ErrNoTextFound] : OCR found no text
//   - [shared.ErrNotAuthenticated] : no usable token for a playlist write
package services
