package services

import (
	"sort"

	"catalog-service/internal/models"
)

// GroupSpecFacets folds (name, value, count) rows into one facet per name.
// Names and values are ordered alphabetically.
func GroupSpecFacets(rows []models.SpecValueCount) []models.SpecFacet {
	byName := make(map[string]*models.SpecFacet)
	var names []string
	for _, row := range rows {
		facet, ok := byName[row.Name]
		if !ok {
			facet = &models.SpecFacet{Name: row.Name}
			byName[row.Name] = facet
			names = append(names, row.Name)
		}
		facet.Values = append(facet.Values, models.SpecValueFacet{Value: row.Value, Count: row.Count})
	}
	sort.Strings(names)

	facets := make([]models.SpecFacet, 0, len(names))
	for _, name := range names {
		facet := byName[name]
		sort.Slice(facet.Values, func(i, j int) bool { return facet.Values[i].Value < facet.Values[j].Value })
		facets = append(facets, *facet)
	}
	return facets
}

// GroupSpecifications folds (name, value) rows into distinct name groups.
func GroupSpecifications(rows []models.SpecValueCount) []models.SpecificationGroup {
	facets := GroupSpecFacets(rows)
	groups := make([]models.SpecificationGroup, 0, len(facets))
	for _, f := range facets {
		g := models.SpecificationGroup{Name: f.Name, Values: make([]string, 0, len(f.Values))}
		for _, v := range f.Values {
			g.Values = append(g.Values, v.Value)
		}
		groups = append(groups, g)
	}
	return groups
}
