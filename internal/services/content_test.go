package services

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("## Specs\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<img src=x onerror=alert(1)> [shop](https://example.kz)")
	assert.Contains(t, html, "<h2>Specs</h2>")
	assert.Contains(t, html, "<table>")
	assert.NotContains(t, html, "onerror")
	assert.Contains(t, html, `rel="nofollow"`)

	assert.Equal(t, "", RenderMarkdown("   "))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Fast & quiet", SanitizeText("  <i>Fast</i> &amp; quiet<script>x()</script> "))
	assert.Equal(t, "", SanitizeText("<b></b>"))
}

func TestBuildTranslationRequests(t *testing.T) {
	d := &models.ProductDescription{
		ID:               uuid.New(),
		Title:            "Features",
		Body:             "Body text",
		Translations:     models.Translations{"EN": "Features"},
		BodyTranslations: models.Translations{},
	}

	reqs := BuildTranslationRequests(d, []string{"EN", "KZ"})
	require.Len(t, reqs, 3)

	byField := map[string][]string{}
	for _, r := range reqs {
		assert.Equal(t, models.ModelProductDescription, r.ModelName)
		assert.Equal(t, d.ID, r.InstanceID)
		byField[r.SourceField] = append(byField[r.SourceField], r.TargetLang)
	}
	assert.Equal(t, []string{"KZ"}, byField["title"])
	assert.Equal(t, []string{"EN", "KZ"}, byField["body"])

	d.Body = "  "
	assert.Len(t, BuildTranslationRequests(d, []string{"EN", "KZ"}), 1)
}

type flakyPublisher struct {
	calls int
}

func (p *flakyPublisher) PublishTranslationRequest(ctx context.Context, req *models.TranslationRequest) error {
	p.calls++
	if req.TargetLang == "KZ" {
		return errors.New("nats: timeout")
	}
	return nil
}

func TestTranslator_Enqueue(t *testing.T) {
	publisher := &flakyPublisher{}
	tr := NewTranslator(publisher, []string{"EN", "KZ"}, testutil.Logger())

	sent := tr.Enqueue(context.Background(), &models.Brand{ID: uuid.New(), Name: "Atlant"})
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, publisher.calls)

	disabled := NewTranslator(nil, []string{"EN"}, testutil.Logger())
	assert.Zero(t, disabled.Enqueue(context.Background(), &models.Brand{ID: uuid.New(), Name: "Atlant"}))

	var none *Translator
	assert.Zero(t, none.Enqueue(context.Background(), &models.Brand{Name: "Atlant"}))
}

func TestCountItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	counts := CountItems([]string{a.String(), b.String(), " " + a.String(), "garbage", ""})
	assert.Equal(t, map[uuid.UUID]int{a: 2, b: 1}, counts)
}
