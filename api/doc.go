// Package api provides the admin HTTP surface for the ingestion engine.
//
// The router is built on gin and wrapped in rs/cors. It exposes:
//
//	GET  /health                         liveness and version
//	GET  /metrics                        prometheus metrics
//	GET  /api/v1/sources                 registered sources
//	POST /api/v1/crawl/:source           queue a latest crawl ("all" or a comma list)
//	POST /api/v1/crawl/:source/range     queue a range crawl (?start=&end=)
//	POST /api/v1/crawl/cancel            cancel one job (?job=) or every active job
//	GET  /api/v1/crawl/jobs/:id          job state and per-source reports
//	GET  /api/v1/articles                stored articles (?source=&start=&end=)
//
// Crawls never run on the request goroutine. Handlers submit jobs to a
// workers.CrawlWorker and return 202 with the job id.
//
// Errors use a small JSON body:
//
//	{"status": 404, "title": "Not Found", "detail": "job not found: abc"}
//
// Domain errors are mapped to status codes in handlers/errors.go.
package api
