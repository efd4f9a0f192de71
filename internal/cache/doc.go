// Package cache persists analysis summaries across launches so unchanged
// photos are not analyzed again.
//
// The whole cache is one JSON blob stored under a single key of a key-value
// store. A blob is usable only while its format version matches Version and
// its last analysis is younger than TTL; an individual entry is usable only
// while the photo's modification timestamp is exactly the one recorded when
// the entry was stored. Anything that fails to load is treated as an absent
// cache.
//
// Only Flush and Clear touch the store.
package cache
