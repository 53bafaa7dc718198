package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Brand{},
		&Tag{},
		&Product{},
		&City{},
		&Warehouse{},
		&Stock{},
		&Edge{},
		&Discount{},
		&SpecificationName{},
		&SpecificationValue{},
		&Specification{},
		&Review{},
		&ProductDescription{},
		&Blog{},
		&BannerImage{},
		&Service{},
	}
}
