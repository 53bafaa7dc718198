// Package search indexes the catalog in Elasticsearch and answers storefront
// search queries, falling back to the database when no cluster is configured.
package search

import (
	"sort"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
)

// ProductDocument is the indexed form of a product
type ProductDocument struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Translations string    `json:"translations"`
	VendorCode   string    `json:"vendor_code"`
	Slug         string    `json:"slug"`
	CategoryName string    `json:"category_name,omitempty"`
	CategoryPath string    `json:"category_path,omitempty"`
	BrandName    string    `json:"brand_name,omitempty"`
	Tags         []TagDoc  `json:"tags"`
	Specs        []SpecDoc `json:"specs"`
}

type TagDoc struct {
	Text string `json:"text"`
}

type SpecDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CategoryDocument is the indexed form of a category
type CategoryDocument struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Translations string              `json:"translations"`
	Slug         string              `json:"slug"`
	Level        int                 `json:"level"`
	Localized    models.Translations `json:"localized,omitempty"`
}

// joinTranslations flattens the non-empty translations in key order.
func joinTranslations(t models.Translations) string {
	keys := make([]string, 0, len(t))
	for k, v := range t {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, t[k])
	}
	return strings.Join(values, " ")
}

// NewProductDocument builds the document of p. Category and Brand should be loaded.
func NewProductDocument(p *models.Product, specs []models.Specification) ProductDocument {
	doc := ProductDocument{
		ID:           p.ID.String(),
		Name:         p.Name,
		Translations: joinTranslations(p.Translations),
		VendorCode:   p.VendorCode,
		Slug:         p.Slug,
		Tags:         []TagDoc{},
		Specs:        []SpecDoc{},
	}
	if p.Category != nil {
		doc.CategoryName = p.Category.Name
		doc.CategoryPath = p.Category.Path
	}
	if p.Brand != nil {
		doc.BrandName = p.Brand.Name
	}
	for _, t := range p.Tags {
		doc.Tags = append(doc.Tags, TagDoc{Text: t.Text})
	}
	for _, s := range specs {
		if s.Name == nil || s.Value == nil {
			continue
		}
		doc.Specs = append(doc.Specs, SpecDoc{Name: s.Name.Name, Value: s.Value.Value})
	}
	return doc
}

func NewCategoryDocument(c *models.Category) CategoryDocument {
	return CategoryDocument{
		ID:           c.ID.String(),
		Name:         c.Name,
		Translations: joinTranslations(c.Translations),
		Slug:         c.Slug,
		Level:        c.Level,
		Localized:    c.Translations,
	}
}

// Category converts the document back to a category carrying only the indexed fields.
func (d CategoryDocument) Category() (models.Category, bool) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Category{}, false
	}
	return models.Category{
		ID:           id,
		Name:         d.Name,
		Slug:         d.Slug,
		Level:        d.Level,
		Translations: d.Localized,
	}, true
}

const autocompleteSettings = `{
  "number_of_shards": 1,
  "number_of_replicas": 0,
  "analysis": {
    "filter": {
      "edge_ngram_filter": {"type": "edge_ngram", "min_gram": 2, "max_gram": 20}
    },
    "analyzer": {
      "autocomplete": {
        "type": "custom",
        "tokenizer": "standard",
        "filter": ["lowercase", "edge_ngram_filter"]
      }
    }
  }
}`

var productMapping = `{
  "settings": ` + autocompleteSettings + `,
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "translations": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "vendor_code": {"type": "text", "analyzer": "keyword"},
      "slug": {"type": "keyword"},
      "category_name": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "category_path": {"type": "keyword"},
      "brand_name": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "tags": {
        "type": "nested",
        "properties": {"text": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"}}
      },
      "specs": {
        "type": "nested",
        "properties": {
          "name": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
          "value": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"}
        }
      }
    }
  }
}`

var categoryMapping = `{
  "settings": ` + autocompleteSettings + `,
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "translations": {"type": "text", "analyzer": "standard"},
      "slug": {"type": "text", "analyzer": "autocomplete", "search_analyzer": "standard"},
      "level": {"type": "integer"},
      "localized": {"type": "object", "enabled": false}
    }
  }
}`

// productQuery matches the name (boosted), translations, vendor code,
// category and brand, plus nested tags and specs. match_phrase_prefix
// serves partially typed input.
func productQuery(q string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  q,
						"fields": []string{"name^3", "translations^2", "vendor_code^2", "category_name", "brand_name", "slug"},
					},
				},
				map[string]interface{}{
					"match_phrase_prefix": map[string]interface{}{
						"name": map[string]interface{}{"query": q, "boost": 2},
					},
				},
				map[string]interface{}{
					"nested": map[string]interface{}{
						"path":  "tags",
						"query": map[string]interface{}{"match": map[string]interface{}{"tags.text": q}},
					},
				},
				map[string]interface{}{
					"nested": map[string]interface{}{
						"path": "specs",
						"query": map[string]interface{}{
							"bool": map[string]interface{}{
								"should": []interface{}{
									map[string]interface{}{"match": map[string]interface{}{"specs.name": q}},
									map[string]interface{}{"match": map[string]interface{}{"specs.value": q}},
								},
								"minimum_should_match": 1,
							},
						},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

func categoryQuery(q string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  q,
						"fields": []string{"name^3", "slug", "translations^2"},
					},
				},
				map[string]interface{}{
					"match_phrase_prefix": map[string]interface{}{
						"name": map[string]interface{}{"query": q},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}
