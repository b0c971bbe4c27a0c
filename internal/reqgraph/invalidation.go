package reqgraph

// InvalidationKind tags the shape of an Invalidation.
type InvalidationKind int

const (
	OnFileUpdate InvalidationKind = iota
	OnFileDelete
	OnFileCreate
	OnFileCreateAbove
	OnGlobCreate
	OnStartup
)

// Invalidation is a declarative reason a cached request result should be
// considered stale. A request's Run implementation returns a set of these;
// the tracker turns them into graph edges in finish_request.
type Invalidation struct {
	Kind InvalidationKind

	// Set for OnFileUpdate, OnFileDelete, OnFileCreate.
	Path string

	// Set for OnFileCreateAbove: rerun if a file named Name appears in any
	// ancestor directory of Above, no deeper than Above itself, anywhere
	// under Above's top-level path component. Dir, if non-empty, further
	// restricts matches to ancestor directories whose trailing path
	// segment equals Dir.
	Name  string
	Above string
	Dir   string

	// Set for OnGlobCreate.
	Glob string
}

// InvalidateOnFileUpdate builds an Invalidation for file modification.
func InvalidateOnFileUpdate(path string) Invalidation {
	return Invalidation{Kind: OnFileUpdate, Path: path}
}

// InvalidateOnFileDelete builds an Invalidation for file deletion.
func InvalidateOnFileDelete(path string) Invalidation {
	return Invalidation{Kind: OnFileDelete, Path: path}
}

// InvalidateOnFileCreate builds an Invalidation for the exact path's creation.
func InvalidateOnFileCreate(path string) Invalidation {
	return Invalidation{Kind: OnFileCreate, Path: path}
}

// InvalidateOnFileCreateAbove builds the ancestor-search Invalidation used
// for resolver lookups like node_modules probing.
func InvalidateOnFileCreateAbove(name, above string) Invalidation {
	return Invalidation{Kind: OnFileCreateAbove, Name: name, Above: above}
}

// InvalidateOnFileCreateAboveDir is InvalidateOnFileCreateAbove with an
// additional directory-name restriction on the edge.
func InvalidateOnFileCreateAboveDir(name, above, dir string) Invalidation {
	return Invalidation{Kind: OnFileCreateAbove, Name: name, Above: above, Dir: dir}
}

// InvalidateOnGlobCreate builds an Invalidation matched against newly
// created paths by glob.
func InvalidateOnGlobCreate(glob string) Invalidation {
	return Invalidation{Kind: OnGlobCreate, Glob: glob}
}

// InvalidateOnStartup builds an Invalidation that always reruns on the next
// process start — used for resolutions the core cannot statically predict.
func InvalidateOnStartup() Invalidation {
	return Invalidation{Kind: OnStartup}
}

// FSEventKind tags a filesystem change delivered between builds.
type FSEventKind int

const (
	EventCreate FSEventKind = iota
	EventUpdate
	EventDelete
)

// FSEvent is one filesystem change the host observed (e.g. via fsnotify)
// and is feeding into Tracker.NextBuild.
type FSEvent struct {
	Kind FSEventKind
	Path string
}
