package services

import (
	"context"
	"strings"

	"catalog-service/internal/models"
	"github.com/sirupsen/logrus"
)

// TranslationPublisher sends translation requests to the relay
type TranslationPublisher interface {
	PublishTranslationRequest(ctx context.Context, req *models.TranslationRequest) error
}

// BuildTranslationRequests returns one request per source field and per
// target language that has no text yet. Empty sources produce nothing.
func BuildTranslationRequests(t models.Translatable, langs []string) []models.TranslationRequest {
	var reqs []models.TranslationRequest
	for _, src := range t.TranslationSources() {
		if strings.TrimSpace(src.Text) == "" {
			continue
		}
		for _, lang := range src.Existing.Missing(langs) {
			reqs = append(reqs, models.TranslationRequest{
				ModelName:   t.TranslationModel(),
				InstanceID:  t.TranslationID(),
				SourceField: src.Field,
				TargetField: src.Target,
				Text:        src.Text,
				TargetLang:  lang,
			})
		}
	}
	return reqs
}

// Translator enqueues missing translations after a model is saved
type Translator struct {
	publisher TranslationPublisher
	languages []string
	logger    *logrus.Entry
}

// NewTranslator creates a translator for the target languages. A nil
// publisher disables the relay.
func NewTranslator(publisher TranslationPublisher, languages []string, logger *logrus.Logger) *Translator {
	return &Translator{
		publisher: publisher,
		languages: languages,
		logger:    logger.WithField("component", "translator"),
	}
}

// Languages returns the target languages of the relay.
func (t *Translator) Languages() []string {
	return t.languages
}

// Enqueue publishes the missing translations of m and returns how many
// requests were sent.
func (t *Translator) Enqueue(ctx context.Context, m models.Translatable) int {
	if t == nil || t.publisher == nil {
		return 0
	}
	sent := 0
	for _, req := range BuildTranslationRequests(m, t.languages) {
		req := req
		if err := t.publisher.PublishTranslationRequest(ctx, &req); err != nil {
			t.logger.WithError(err).WithFields(logrus.Fields{
				"model":       req.ModelName,
				"instance_id": req.InstanceID,
				"target_lang": req.TargetLang,
			}).Warn("Failed to publish translation request")
			continue
		}
		sent++
	}
	return sent
}
