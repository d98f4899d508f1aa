package testutil

// DefaultSessionID is used when a scenario does not name its session.
const DefaultSessionID = "test-session-00000000-0000-0000-0000-000000000001"

// FixedSessionGenerator returns the same session id every time.
//
// Unlike engine.FixedGenerator, which hands out ids in sequence and panics
// when exhausted, this generator can back any number of runs of the same
// scenario so their scenes and journals come out identical.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator for id, or DefaultSessionID
// when id is empty.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
