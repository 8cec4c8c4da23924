package models

// All lists the persisted models in dependency order for AutoMigrate.
func All() []any {
	return []any{
		&Store{},
		&User{},
		&Category{},
		&Product{},
		&Order{},
	}
}
