package squarewebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/angelmondragon/ordering-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// SignatureHeader carries Square's HMAC of the notification URL plus body.
const SignatureHeader = "X-Square-Hmacsha256-Signature"

const eventCatalogVersionUpdated = "catalog.version.updated"

// Event is the envelope of every Square webhook delivery.
type Event struct {
	MerchantID string    `json:"merchant_id"`
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	CreatedAt  string    `json:"created_at"`
	Data       EventData `json:"data"`
}

type EventData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Service reacts to catalog edits made in the Square dashboard by refreshing
// the cached menu. Other event types are acknowledged and ignored.
type Service struct {
	catalog catalog.Service
	logg    *logger.Logger
}

func NewService(svc catalog.Service, logg *logger.Logger) (*Service, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service required")
	}
	return &Service{catalog: svc, logg: logg}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(strings.TrimSpace(event.Type)) {
	case eventCatalogVersionUpdated:
		if _, err := s.catalog.Catalog(ctx, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh catalog")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.EventID), "catalog refreshed from webhook")
		}
		return nil
	default:
		return nil
	}
}

// VerifySignature checks the base64 HMAC-SHA256 Square computes over the
// subscription's notification URL followed by the raw body.
func VerifySignature(signatureKey, notificationURL string, body []byte, signature string) bool {
	if signatureKey == "" || notificationURL == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(signatureKey))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}
