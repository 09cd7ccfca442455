/*
Package menu provides the representative handler implementations that
self-register into a session.Registry: main, results, media actions,
episodes, provider search, servers, player controls, and session
management. Each handler closes over an *Env rather than the engine's
ephemeral *session.Context, since every external collaborator a handler
needs (media API, provider, player, selector, downloader, feedback) is
process-wide, not per-state.

Handlers never hold the registry lock across a selector call: every
registry read/write happens synchronously inside the handler body, and
selector.Choose/Ask/Confirm are the only suspension points, matching the
engine's single-foreground-thread scheduling model.
*/
package menu
