// Package corpus indexes a flat directory of one-second clip files. File
// names carry identity as sourceID_segmentID tokens; the sorted directory
// listing is the catalog. The index is built once at startup and is
// read-only afterwards.
package corpus
