package models

import "github.com/google/uuid"

// TranslationRequest asks the translator to fill TargetField[TargetLang]
// from the text of SourceField.
type TranslationRequest struct {
	ModelName   string    `json:"model_name"`
	InstanceID  uuid.UUID `json:"instance_id"`
	SourceField string    `json:"source_field"`
	TargetField string    `json:"target_field"`
	Text        string    `json:"text"`
	TargetLang  string    `json:"target_lang"`
}

// TranslationResponse carries the translated text back
type TranslationResponse struct {
	ModelName   string    `json:"model_name"`
	InstanceID  uuid.UUID `json:"instance_id"`
	SourceField string    `json:"source_field"`
	TargetField string    `json:"target_field"`
	Text        string    `json:"text"`
	TargetLang  string    `json:"target_lang"`
}

// Validate reports the first missing field, or "" when complete.
func (r *TranslationResponse) Validate() string {
	switch {
	case r.ModelName == "":
		return "model_name"
	case r.InstanceID == uuid.Nil:
		return "instance_id"
	case r.SourceField == "":
		return "source_field"
	case r.TargetField == "":
		return "target_field"
	case r.Text == "":
		return "text"
	case r.TargetLang == "":
		return "target_lang"
	}
	return ""
}

// TranslatedField pairs a source text column with the JSON column receiving its translations
type TranslatedField struct {
	Source string
	Target string
}

// SpecificationImport is published by the ERP when it resolves the
// specifications of a product.
type SpecificationImport struct {
	ProductID     uuid.UUID  `json:"product_id"`
	BaseProductID *uuid.UUID `json:"base_product_id,omitempty"`
	Specs         []SpecPair `json:"specs"`
}

// TranslationSource is one source text and the translations already stored for it
type TranslationSource struct {
	Field    string
	Target   string
	Text     string
	Existing Translations
}

// Translatable is implemented by models whose text is relayed to the translator
type Translatable interface {
	TranslationModel() string
	TranslationID() uuid.UUID
	TranslationSources() []TranslationSource
}

const (
	ModelProduct            = "catalog.Product"
	ModelCategory           = "catalog.Category"
	ModelBrand              = "catalog.Brand"
	ModelSpecificationName  = "catalog.SpecificationName"
	ModelSpecificationValue = "catalog.SpecificationValue"
	ModelCity               = "sales.City"
	ModelTag                = "content.Tag"
	ModelProductDescription = "content.ProductDescription"
	ModelBlog               = "content.Blog"
)

func (p *Product) TranslationModel() string { return ModelProduct }
func (p *Product) TranslationID() uuid.UUID { return p.ID }
func (p *Product) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "name", Target: "additional_data", Text: p.Name, Existing: p.Translations}}
}

func (c *Category) TranslationModel() string { return ModelCategory }
func (c *Category) TranslationID() uuid.UUID { return c.ID }
func (c *Category) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "name", Target: "additional_data", Text: c.Name, Existing: c.Translations}}
}

func (b *Brand) TranslationModel() string { return ModelBrand }
func (b *Brand) TranslationID() uuid.UUID { return b.ID }
func (b *Brand) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "name", Target: "additional_data", Text: b.Name, Existing: b.Translations}}
}

func (c *City) TranslationModel() string { return ModelCity }
func (c *City) TranslationID() uuid.UUID { return c.ID }
func (c *City) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "name", Target: "additional_data", Text: c.Name, Existing: c.Translations}}
}

func (t *Tag) TranslationModel() string { return ModelTag }
func (t *Tag) TranslationID() uuid.UUID { return t.ID }
func (t *Tag) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "text", Target: "additional_data", Text: t.Text, Existing: t.Translations}}
}

func (s *SpecificationName) TranslationModel() string { return ModelSpecificationName }
func (s *SpecificationName) TranslationID() uuid.UUID { return s.ID }
func (s *SpecificationName) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "name", Target: "additional_data", Text: s.Name, Existing: s.Translations}}
}

func (s *SpecificationValue) TranslationModel() string { return ModelSpecificationValue }
func (s *SpecificationValue) TranslationID() uuid.UUID { return s.ID }
func (s *SpecificationValue) TranslationSources() []TranslationSource {
	return []TranslationSource{{Field: "value", Target: "additional_data", Text: s.Value, Existing: s.Translations}}
}

func (d *ProductDescription) TranslationModel() string { return ModelProductDescription }
func (d *ProductDescription) TranslationID() uuid.UUID { return d.ID }
func (d *ProductDescription) TranslationSources() []TranslationSource {
	return []TranslationSource{
		{Field: "title", Target: "additional_data", Text: d.Title, Existing: d.Translations},
		{Field: "body", Target: "body_translations", Text: d.Body, Existing: d.BodyTranslations},
	}
}

func (b *Blog) TranslationModel() string { return ModelBlog }
func (b *Blog) TranslationID() uuid.UUID { return b.ID }
func (b *Blog) TranslationSources() []TranslationSource {
	return []TranslationSource{
		{Field: "title", Target: "additional_data", Text: b.Title, Existing: b.Translations},
		{Field: "body", Target: "body_translations", Text: b.Body, Existing: b.BodyTranslations},
	}
}

// TranslationTargets lists, per model, the table and JSON columns a
// translation response may write to.
var TranslationTargets = map[string]struct {
	Table   string
	Columns []string
}{
	ModelProduct:            {Table: "products", Columns: []string{"additional_data"}},
	ModelCategory:           {Table: "categories", Columns: []string{"additional_data"}},
	ModelBrand:              {Table: "brands", Columns: []string{"additional_data"}},
	ModelSpecificationName:  {Table: "specification_names", Columns: []string{"additional_data"}},
	ModelSpecificationValue: {Table: "specification_values", Columns: []string{"additional_data"}},
	ModelCity:               {Table: "cities", Columns: []string{"additional_data"}},
	ModelTag:                {Table: "tags", Columns: []string{"additional_data"}},
	ModelProductDescription: {Table: "product_descriptions", Columns: []string{"additional_data", "body_translations"}},
	ModelBlog:               {Table: "blogs", Columns: []string{"additional_data", "body_translations"}},
}
