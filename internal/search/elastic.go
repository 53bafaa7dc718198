package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Elastic indexes and queries products and categories in Elasticsearch
type Elastic struct {
	client          *elasticsearch.Client
	productsIndex   string
	categoriesIndex string
	logger          *logrus.Entry
}

// NewElastic connects to the cluster at url. Index names are prefixed with prefix.
func NewElastic(url, prefix string, logger *logrus.Logger) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(url, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Elastic{
		client:          client,
		productsIndex:   prefix + "products",
		categoriesIndex: prefix + "categories",
		logger:          logger.WithField("component", "elasticsearch"),
	}, nil
}

// Ping checks that the cluster answers.
func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return responseError(res, "ping")
}

// EnsureIndices creates the product and category indices when missing.
func (e *Elastic) EnsureIndices(ctx context.Context) error {
	for index, mapping := range map[string]string{
		e.productsIndex:   productMapping,
		e.categoriesIndex: categoryMapping,
	} {
		res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", index, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}
		if err := e.createIndex(ctx, index, mapping); err != nil {
			return err
		}
	}
	return nil
}

func (e *Elastic) createIndex(ctx context.Context, index, mapping string) error {
	res, err := e.client.Indices.Create(index,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()
	return responseError(res, "create index "+index)
}

// recreateIndex drops and recreates an index with its mapping.
func (e *Elastic) recreateIndex(ctx context.Context, index, mapping string) error {
	res, err := e.client.Indices.Delete([]string{index},
		e.client.Indices.Delete.WithContext(ctx),
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", index, err)
	}
	res.Body.Close()
	return e.createIndex(ctx, index, mapping)
}

func (e *Elastic) IndexProduct(ctx context.Context, p *models.Product, specs []models.Specification) error {
	return e.put(ctx, e.productsIndex, p.ID, NewProductDocument(p, specs))
}

func (e *Elastic) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return e.remove(ctx, e.productsIndex, id)
}

func (e *Elastic) IndexCategory(ctx context.Context, c *models.Category) error {
	return e.put(ctx, e.categoriesIndex, c.ID, NewCategoryDocument(c))
}

func (e *Elastic) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return e.remove(ctx, e.categoriesIndex, id)
}

func (e *Elastic) put(ctx context.Context, index string, id uuid.UUID, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.client.Index(index, bytes.NewReader(body),
		e.client.Index.WithDocumentID(id.String()),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	return responseError(res, "index "+index)
}

func (e *Elastic) remove(ctx context.Context, index string, id uuid.UUID) error {
	res, err := e.client.Delete(index, id.String(), e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return responseError(res, "delete from "+index)
}

// bulk writes documents to index in one request. Bodies are NDJSON.
func (e *Elastic) bulk(ctx context.Context, index string, ids []string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for i, doc := range docs {
		meta, _ := json.Marshal(map[string]interface{}{"index": map[string]string{"_id": ids[i]}})
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(data)
		buf.WriteByte('\n')
	}
	res, err := e.client.Bulk(&buf,
		e.client.Bulk.WithIndex(index),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request to %s failed: %w", index, err)
	}
	defer res.Body.Close()
	if err := responseError(res, "bulk "+index); err != nil {
		return err
	}
	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err == nil && result.Errors {
		e.logger.WithField("index", index).Warn("Bulk indexing reported item errors")
	}
	return nil
}

type searchHit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

func (e *Elastic) search(ctx context.Context, index string, query map[string]interface{}, limit int) ([]searchHit, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": query,
		"size":  limit,
	})
	if err != nil {
		return nil, err
	}
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search on %s failed: %w", index, err)
	}
	defer res.Body.Close()
	if err := responseError(res, "search "+index); err != nil {
		return nil, err
	}

	var result struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return result.Hits.Hits, nil
}

// Products returns matching product IDs by relevance.
func (e *Elastic) Products(ctx context.Context, q string, limit int) ([]uuid.UUID, error) {
	hits, err := e.search(ctx, e.productsIndex, productQuery(q), limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		if id, err := uuid.Parse(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Categories returns matching categories by relevance, built from the index.
func (e *Elastic) Categories(ctx context.Context, q string, limit int) ([]models.Category, error) {
	hits, err := e.search(ctx, e.categoriesIndex, categoryQuery(q), limit)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(hits))
	for _, h := range hits {
		var doc CategoryDocument
		if err := json.Unmarshal(h.Source, &doc); err != nil {
			continue
		}
		if c, ok := doc.Category(); ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func responseError(res *esapi.Response, op string) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return fmt.Errorf("elasticsearch %s error (status %d): %s", op, res.StatusCode, string(body))
}
