package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"clipfeed/internal/logging"
)

// ClipFile is one physical media file, immutable once indexed.
type ClipFile struct {
	SourceID  int64
	SegmentID int64
	Path      string
}

// Index owns the ordered clip sequence and the per-source buckets.
type Index struct {
	clips     []ClipFile
	sourceIDs []int64
	bySource  map[int64][]ClipFile
	maxSource int64
}

// Scan enumerates dir for clip files with the given extension, in
// lexicographic name order, and builds the index. Files whose names do not
// parse as sourceID_segmentID are logged and excluded. Scan fails when the
// directory cannot be read or when no file parses, since an empty corpus is
// a configuration error rather than a runtime condition.
func Scan(dir, ext string, log *slog.Logger) (*Index, error) {
	if log == nil {
		log = logging.NewNop()
	}
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return nil, fmt.Errorf("corpus scan: empty clip extension")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus scan %s: %w", dir, err)
	}

	index := &Index{
		bySource:  make(map[int64][]ClipFile),
		maxSource: -1,
	}
	// ReadDir returns entries sorted by name, which fixes the flat order.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		sourceID, segmentID, ok := parseClipName(name)
		if !ok {
			log.Warn("skipping unparseable clip name", logging.String("file", name))
			continue
		}
		clip := ClipFile{
			SourceID:  sourceID,
			SegmentID: segmentID,
			Path:      filepath.Join(dir, name),
		}
		index.clips = append(index.clips, clip)
		index.sourceIDs = append(index.sourceIDs, sourceID)
		index.bySource[sourceID] = append(index.bySource[sourceID], clip)
		if sourceID > index.maxSource {
			index.maxSource = sourceID
		}
	}

	if len(index.clips) == 0 {
		return nil, fmt.Errorf("corpus scan %s: no clip files named sourceID_segmentID%s found", dir, ext)
	}
	return index, nil
}

// parseClipName splits the file stem on underscores and reads the two
// leading numeric tokens.
func parseClipName(name string) (sourceID, segmentID int64, ok bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 2 {
		return 0, 0, false
	}
	sourceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	segmentID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return sourceID, segmentID, true
}

// Len returns the number of indexed clips.
func (i *Index) Len() int {
	return len(i.clips)
}

// Clip returns the clip at flat index idx.
func (i *Index) Clip(idx int) ClipFile {
	return i.clips[idx]
}

// Clips returns a copy of the full ordered clip sequence.
func (i *Index) Clips() []ClipFile {
	out := make([]ClipFile, len(i.clips))
	copy(out, i.clips)
	return out
}

// SourceIDs returns a copy of the source id at each flat index, aligned with
// Clip. This is the sampler's view of the corpus.
func (i *Index) SourceIDs() []int64 {
	out := make([]int64, len(i.sourceIDs))
	copy(out, i.sourceIDs)
	return out
}

// SourceCount returns the number of distinct source ids.
func (i *Index) SourceCount() int {
	return len(i.bySource)
}

// MaxSourceID returns the largest source id seen, or -1 for an empty index.
func (i *Index) MaxSourceID() int64 {
	return i.maxSource
}

// Sources returns the distinct source ids in ascending order.
func (i *Index) Sources() []int64 {
	out := make([]int64, 0, len(i.bySource))
	for id := range i.bySource {
		out = append(out, id)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Segments returns a copy of the clips recorded for one source id, in scan
// order.
func (i *Index) Segments(sourceID int64) []ClipFile {
	bucket := i.bySource[sourceID]
	out := make([]ClipFile, len(bucket))
	copy(out, bucket)
	return out
}
