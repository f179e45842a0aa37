// Package gluesync applies metastore notifications to the Glue Data Catalog:
// per-entity sync services and the Listener that dispatches to them.
package gluesync

import "maps"

// Ownership tag stamped on every database this engine creates in Glue.
const (
	OwnershipTagKey   = "managed-by"
	OwnershipTagValue = "apiary-glue-sync"
)

// SkipArchiveParam is the table parameter that overrides the skip-archive
// default on table updates.
const SkipArchiveParam = "apiary.gluesync.skipArchive"

// SyncConfig is the engine configuration, fixed for the process lifetime.
type SyncConfig struct {
	// Prefix is prepended to every Glue database name.
	Prefix string
	// SkipArchiveDefault is used on table updates unless the table carries
	// SkipArchiveParam.
	SkipArchiveDefault bool
}

// IsOwned reports whether a Glue entity's parameters carry the ownership tag.
func IsOwned(params map[string]string) bool {
	v, ok := params[OwnershipTagKey]
	return ok && v == OwnershipTagValue
}

// WithOwnershipTag returns a copy of params with the ownership tag set.
func WithOwnershipTag(params map[string]string) map[string]string {
	out := maps.Clone(params)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[OwnershipTagKey] = OwnershipTagValue
	return out
}
