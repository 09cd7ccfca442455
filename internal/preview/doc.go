/*
Package preview implements the preview cache: on-disk artifacts (images,
rendered info text) prefetched for the selector's preview pane, addressed
by the SHA-256 of a canonical input.

Media are hashed by their display title; episodes by
"<title>_Episode_<n>". Output lands at:

	<cache>/previews/images/<hex>.png
	<cache>/previews/info/<hex>

The Manager lazily starts two worker pools (media, episode) on first use
and registers them with a workerpool.ThreadManager so the session engine
can shut them down alongside every other background pool. All fetches
share one HTTP client with a connection limit equal to worker width and a
20-second per-request timeout; failures are logged per-task and never
propagated to the menu dispatch path.
*/
package preview
