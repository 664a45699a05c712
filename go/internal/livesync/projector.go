package livesync

import (
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Projector turns raw snapshots of one collection into typed lists and
// publishes each list as a single unit
type Projector[T any] struct {
	collection string
	transform  func(models.RawDocument) (T, error)
	out        *Stream[T]
}

func NewProjector[T any](collection string, transform func(models.RawDocument) (T, error), out *Stream[T]) *Projector[T] {
	return &Projector[T]{collection: collection, transform: transform, out: out}
}

func (p *Projector[T]) Collection() string {
	return p.collection
}

// Apply transforms every document and publishes the result. Documents the
// transform rejects are logged and left out; the rest still publish.
func (p *Projector[T]) Apply(docs []models.RawDocument) {
	items := make([]T, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		item, err := p.transform(doc)
		if err != nil {
			skipped++
			log.Warn().
				Err(err).
				Str("collection", p.collection).
				Str("document_id", doc.ID).
				Msg("skipping invalid document")
			continue
		}
		items = append(items, item)
	}

	p.out.publish(items)

	log.Debug().
		Str("collection", p.collection).
		Int("count", len(items)).
		Int("skipped", skipped).
		Msg("projected snapshot")
}
