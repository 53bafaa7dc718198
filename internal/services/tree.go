package services

import (
	"sort"

	"catalog-service/internal/models"
	"github.com/google/uuid"
)

// BuildCategoryTree assembles flat categories into translated trees. Nodes
// whose parent is missing from the input become roots.
func BuildCategoryTree(categories []models.Category, lang string) []*models.CategoryNode {
	sorted := make([]models.Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Level != sorted[j].Level {
			return sorted[i].Level < sorted[j].Level
		}
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Name < sorted[j].Name
	})

	nodes := make(map[uuid.UUID]*models.CategoryNode, len(sorted))
	for i := range sorted {
		c := &sorted[i]
		name := c.Translations.Resolve(lang, c.Name)
		nodes[c.ID] = &models.CategoryNode{
			ID:       c.ID,
			Title:    name,
			Label:    name,
			Value:    name,
			Key:      c.TreeKey(),
			Slug:     c.Slug,
			Level:    c.Level,
			Children: []*models.CategoryNode{},
		}
	}

	var roots []*models.CategoryNode
	for i := range sorted {
		c := &sorted[i]
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	if roots == nil {
		roots = []*models.CategoryNode{}
	}
	return roots
}

// Breadcrumbs orders the ancestors of a category from the root down.
func Breadcrumbs(category *models.Category, ancestors []models.Category, lang string) []models.CategoryRef {
	byID := make(map[uuid.UUID]models.Category, len(ancestors))
	for _, a := range ancestors {
		byID[a.ID] = a
	}
	ids := category.AncestorIDs()
	refs := make([]models.CategoryRef, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		c, ok := byID[ids[i]]
		if !ok {
			if ids[i] != category.ID {
				continue
			}
			c = *category
		}
		refs = append(refs, models.CategoryRef{
			ID:   c.ID,
			Name: c.Translations.Resolve(lang, c.Name),
			Slug: c.Slug,
		})
	}
	return refs
}
