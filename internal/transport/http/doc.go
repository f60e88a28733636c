// Package http implements the JSON API of the closing report service on top
// of chi. Handlers stay thin: they parse and validate the request, call a
// service through a small interface, and render the result with go-chi/render.
//
// # Routes
//
//	GET  /health                                      liveness
//	GET  /health/ready                                readiness with dependency checks
//	GET  /metrics                                     Prometheus scrape endpoint
//	GET  /api/v1/reports/{exchange}?date=&format=     closing report (json or csv)
//	GET  /api/v1/directory/{exchange}                 directory size and cache age
//	POST /api/v1/directory/{exchange}/refresh         force a directory refresh
//	GET  /api/v1/directory/{exchange}/companies/{sym} one directory entry
//	GET  /api/v1/archive/{exchange}                   archived trading days
//	GET  /api/v1/archive/{exchange}/{date}            one archived report
//
// {exchange} is NSE or BSE in any case; dates are YYYY-MM-DD. A missing date
// means today.
//
// # Errors
//
// Every failure is answered with RFC 7807 problem details produced by
// internal/errors. A report the exchange does not publish yields
//
//	{
//	    "type": "/errors/report/not-found",
//	    "title": "Report Not Found",
//	    "status": 404,
//	    "detail": "report not found - https://...",
//	    "exchange": "NSE",
//	    "report_url": "https://...",
//	    "trace_id": "..."
//	}
//
// # Caching
//
// Successful report retrievals are kept in an in-memory go-cache memo keyed by
// exchange and day; the X-Report-Cache header says hit or miss. Passing
// refresh_directory=true bypasses the memo.
//
// # Testing
//
// Handlers are tested through the full router with httptest and testify
// mocks for the services.
package http
