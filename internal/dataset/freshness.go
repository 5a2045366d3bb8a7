package dataset

// FreshnessFlags reports whether the cached profile and recommendations
// still reflect the table and intent. false means recompute on next read.
type FreshnessFlags struct {
	MetadataFresh bool
	RecsFresh     bool
}

// tracker is the per-dataset freshness state machine:
//
//	{MetaStale, MetaFresh} x {RecsStale, RecsFresh}
//
// Mutations move both halves to stale. Recomputes move one half to fresh.
// Recommendations never become fresh while metadata is stale.
type tracker struct {
	flags FreshnessFlags
}

func (t *tracker) invalidate() { t.flags = FreshnessFlags{} }

// expireRecs is used for changes that leave the profile intact, such as
// a new intent or plot config.
func (t *tracker) expireRecs() { t.flags.RecsFresh = false }

func (t *tracker) metadataFresh() bool { return t.flags.MetadataFresh }

func (t *tracker) recsFresh() bool { return t.flags.MetadataFresh && t.flags.RecsFresh }

func (t *tracker) metadataComputed() { t.flags.MetadataFresh = true }

func (t *tracker) recsComputed() {
	if t.flags.MetadataFresh {
		t.flags.RecsFresh = true
	}
}

func (t *tracker) snapshot() FreshnessFlags { return t.flags }
