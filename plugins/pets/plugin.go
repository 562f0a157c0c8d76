// ABOUTME: Pet resource kind for the console.
// ABOUTME: Declares the pet form fields, search filters and table columns.

package pets

import "github.com/2389/reco/plugins/core"

func init() {
	core.Register(&PetsPlugin{})
}

// Genders accepted by the pets API
var Genders = []string{"MALE", "FEMALE", "UNKNOWN"}

type PetsPlugin struct{}

func (p *PetsPlugin) Name() string {
	return "pets"
}

func (p *PetsPlugin) Schema() core.ResourceSchema {
	return core.ResourceSchema{
		Name: "Pet",
		Slug: "pets",
		Fields: []core.FieldSchema{
			{Name: "id", Selector: "pet_id", Display: "ID", Kind: core.KindInteger, Identifier: true},
			{Name: "name", Selector: "pet_name", Display: "Name", Kind: core.KindString, Editable: true},
			{Name: "category", Selector: "pet_category", Display: "Category", Kind: core.KindString, Editable: true},
			{Name: "available", Selector: "pet_available", Display: "Available", Kind: core.KindBoolean, Editable: true},
			{Name: "gender", Selector: "pet_gender", Display: "Gender", Kind: core.KindEnum, Editable: true, Options: Genders},
			{Name: "birthday", Selector: "pet_birthday", Display: "Birthday", Kind: core.KindString, Editable: true},
		},
		Filters:     []string{"name", "category", "available"},
		ListColumns: []string{"id", "name", "category", "available", "gender", "birthday"},
		Actions:     core.StandardActions(),
	}
}
