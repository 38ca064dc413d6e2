package gpu

// Resource is a single 2D pixel resource: a host pixel buffer optionally
// backed by a guest-memory scatter list. See spec.md §3 for the full
// data model and its invariants.
type Resource struct {
	ID     uint32
	Width  uint32
	Height uint32
	Format Format

	image   *PixelBuffer
	backing [][]byte // guest-memory scatter list, already translated
}

// hasBacking reports whether ATTACH_BACKING has populated this
// resource's scatter list.
func (r *Resource) hasBacking() bool { return r.backing != nil }

// detach frees the backing vector without touching the pixel buffer.
// The byte ranges themselves are not owned by the resource — only the
// slice of descriptors is (spec.md §3, Lifecycle) — so this is just
// dropping our reference to the translated ranges.
func (r *Resource) detach() {
	r.backing = nil
}

// ResourceTable (component C1) holds every live 2D resource, keyed by
// the guest-chosen id. id == 0 is reserved and must never be inserted
// (invariant 2); callers enforce that, not the table.
type ResourceTable struct {
	byID map[uint32]*Resource
}

// NewResourceTable returns an empty table.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{byID: make(map[uint32]*Resource)}
}

// Find looks up a resource by id. ok is false if no resource with that
// id exists — per invariant 2, that is also true whenever id == 0.
func (t *ResourceTable) Find(id uint32) (r *Resource, ok bool) {
	r, ok = t.byID[id]
	return r, ok
}

// Insert adds r to the table. It panics if r.ID already has an entry;
// callers (RESOURCE_CREATE_2D) must check Find first and turn a
// collision into ERR_INVALID_RESOURCE_ID rather than relying on this to
// reject it silently.
func (t *ResourceTable) Insert(r *Resource) {
	if _, exists := t.byID[r.ID]; exists {
		panic("gpu: duplicate resource id inserted")
	}
	t.byID[r.ID] = r
}

// Remove releases and deletes the resource with the given id, if any.
// It is a no-op if the id is not present.
func (t *ResourceTable) Remove(id uint32) {
	r, ok := t.byID[id]
	if !ok {
		return
	}
	r.image.unref()
	r.detach()
	delete(t.byID, id)
}

// Len reports the number of live resources; mostly useful for tests.
func (t *ResourceTable) Len() int { return len(t.byID) }

// Iter calls fn once per live resource, in unspecified order (spec.md
// §3: "iteration order is irrelevant"), stopping early if fn returns
// false. Modeled on sync.Map.Range's callback shape rather than
// returning a snapshot slice, since nothing in this core needs to
// retain the set of resources past a single pass over it.
func (t *ResourceTable) Iter(fn func(*Resource) bool) {
	for _, r := range t.byID {
		if !fn(r) {
			return
		}
	}
}

// Clear releases every resource's pixel-buffer reference and backing
// vector and empties the table. Used by device reset and teardown.
func (t *ResourceTable) Clear() {
	for id := range t.byID {
		t.Remove(id)
	}
}
