// ABOUTME: Recommendation resource kind for the console.
// ABOUTME: Declares recommendation fields, filters, columns and the rate sub-action.

package recommendations

import "github.com/2389/reco/plugins/core"

func init() {
	core.Register(&RecommendationsPlugin{})
}

// Types is the set of recommendation types the API understands
var Types = []string{
	"UPSELL",
	"CROSS_SELL",
	"FREQ_BOUGHT_TOGETHER",
	"RECOMMENDED_FOR_YOU",
	"TRENDING",
	"UNKNOWN",
}

type RecommendationsPlugin struct{}

func (p *RecommendationsPlugin) Name() string {
	return "recommendations"
}

func (p *RecommendationsPlugin) Schema() core.ResourceSchema {
	return core.ResourceSchema{
		Name: "Recommendation",
		Slug: "recommendations",
		Fields: []core.FieldSchema{
			{Name: "id", Selector: "reco_id", Display: "ID", Kind: core.KindInteger, Identifier: true},
			{Name: "user_id", Selector: "reco_user_id", Display: "User ID", Kind: core.KindInteger, Editable: true, Min: 1, Max: 9},
			{Name: "product_id", Selector: "reco_product_id", Display: "Product ID", Kind: core.KindInteger, Editable: true, Min: 1, Max: 49},
			{Name: "create_date", Selector: "reco_create_date", Display: "Create Date", Kind: core.KindString},
			{Name: "update_date", Selector: "reco_update_date", Display: "Update Date", Kind: core.KindString},
			{Name: "bought_in_last_30_days", Selector: "reco_bought", Display: "Bought in last 30 days", Kind: core.KindBoolean, Editable: true},
			{Name: "rating", Selector: "reco_rating", Display: "Rating", Kind: core.KindInteger, Editable: true, Min: 1, Max: 5},
			{Name: "recommendation_type", Selector: "reco_recommendation_type", Display: "Recommendation Type", Kind: core.KindEnum, Editable: true, Options: Types},
		},
		Filters: []string{"user_id", "product_id", "recommendation_type"},
		ListColumns: []string{
			"id", "user_id", "product_id", "create_date", "update_date",
			"bought_in_last_30_days", "rating", "recommendation_type",
		},
		Actions: core.StandardActions(core.ActionSchema{
			Name:       "rate",
			Display:    "Rate",
			HTTPMethod: "PUT",
			Endpoint:   "/{id}/rating",
			Fields:     []string{"rating"},
		}),
	}
}
