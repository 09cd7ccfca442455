/*
Package registry is the content-addressed media registry: one JSON file
per tracked anime (MediaRecord), a denormalized index for fast listing,
and a Tracker façade that turns playback and download events into
registry mutations.

# Layout

	<data>/registry/index.json
	<data>/registry/media/<media_id>.json

# Usage

	store := registry.NewStore(cfg.Paths.Data, cfg.Registry.CacheSize, cfg.Registry.CacheTTL)
	store.EnsureDirs()
	store.RepairIndex()

	tracker := registry.NewTracker(store)
	tracker.TrackPlaybackStopped(registry.PlaybackEvent{...})

Every mutation goes through Store.Save, which writes the record file and
rebuilds this media_id's index entry atomically (though not as a single
transaction across both files — RepairIndex restores consistency
deterministically from the record files alone after a crash between the
two writes).
*/
package registry
