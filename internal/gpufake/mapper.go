package gpufake

// Mapper is an in-memory transport.Mapper: guest addresses are just
// indexes into a backing arena, so tests can build ATTACH_BACKING
// scatter lists without simulating real guest memory.
type Mapper struct {
	arena []byte
}

// NewMapper returns a Mapper backed by an arena of the given size, so
// that addresses [0, size) all translate successfully.
func NewMapper(size int) *Mapper {
	return &Mapper{arena: make([]byte, size)}
}

// Arena exposes the backing slice so tests can seed guest data before
// issuing a TRANSFER_TO_HOST_2D.
func (m *Mapper) Arena() []byte { return m.arena }

func (m *Mapper) Translate(gpa uint64, length uint32) []byte {
	start := int(gpa)
	end := start + int(length)
	if start < 0 || end > len(m.arena) || end < start {
		return nil
	}
	return m.arena[start:end]
}
