package mapview

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/pkg/storage"
)

// Publisher uploads rendered maps for hosts that can only embed a URL.
type Publisher struct {
	storage storage.Storage
}

// NewPublisher creates map publisher
func NewPublisher(st storage.Storage) *Publisher {
	return &Publisher{storage: st}
}

// Key returns the content-addressed object key of doc.
func Key(bookingID string, doc *Document) string {
	return fmt.Sprintf("maps/%s/%s.html", bookingID, doc.ETag)
}

// Publish stores doc and returns its public URL. Identical pages share a key,
// so an existing object is not uploaded again.
func (p *Publisher) Publish(ctx context.Context, bookingID string, doc *Document) (string, error) {
	key := Key(bookingID, doc)

	exists, err := p.storage.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check map object: %w", err)
	}
	if !exists {
		if err := p.storage.Put(ctx, key, bytes.NewReader(doc.HTML), doc.ContentType); err != nil {
			return "", fmt.Errorf("upload map object: %w", err)
		}
		log.Info().Str("booking_id", bookingID).Str("key", key).Msg("Map page published")
	}

	return p.storage.GetURL(key), nil
}
