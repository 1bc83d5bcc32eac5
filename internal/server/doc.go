// Package server provides the HTTP lookup proxy: routing, middleware and the handlers
// around one shared MusicBrainz client.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// Middleware runs outside the method filter, so CORS preflights never reach a handler.
//
// # Year Lookups
//
// [YearHandler] serves GET /musicbrainz/year. Every request goes through the same
// lookup client, so concurrent callers share one rate limit and one retry budget per lookup:
//
//	200 {"year":"1965"}     a candidate had a first release date
//	200 {"year":null}       no candidate had one
//	400 {"error":"..."}     track or artist missing
//	4xx/5xx text            MusicBrainz rejected the request, its status is passed through
//	500 {"error":"..."}     MusicBrainz stayed unavailable for every attempt
//
// Successful answers may be cached in memory for a short time. Nothing is persisted.
//
// # Ingestion Streams
//
// [IngestHandler] upgrades GET /ingest/ws?url=<playlist> to a websocket and streams
// [IngestMessage] frames while the playlist is ingested. The final frame carries the deck.
//
// # Observability
//
// [RequestLogger] tags each request with an id returned in the X-Request-ID header.
// [Metrics] exposes lookup outcomes, attempt counts and request latency at GET /metrics.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
