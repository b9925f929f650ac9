package zomato

type schema = map[string]any

func str() schema { return schema{"type": "string"} }

func menuSchema() schema {
	return schema{
		"type": "array",
		"items": schema{
			"type": "object",
			"properties": schema{
				"category_name": str(),
				"items": schema{
					"type": "array",
					"items": schema{
						"type": "object",
						"properties": schema{
							"item_name":   str(),
							"description": str(),
							"price":       str(),
							"veg_flag":    str(),
						},
					},
				},
			},
		},
	}
}

// restaurantProperties is shared by the listing extraction and the
// completion fallback; only the rating type differs.
func restaurantProperties(rating string) schema {
	return schema{
		"name": str(),
		"cuisine": schema{
			"oneOf": []any{
				schema{"type": "array", "items": str()},
				str(),
			},
		},
		"veg_nonveg":       str(),
		"is_pure_veg":      schema{"type": "boolean"},
		"address":          str(),
		"rating":           schema{"type": rating},
		"price_range":      str(),
		"opening_hours":    str(),
		"contact_number":   str(),
		"amenities":        schema{"type": "array", "items": str()},
		"menu":             menuSchema(),
		"image_url":        str(),
		"reservation_link": str(),
		"source_url":       str(),
	}
}

// ListingSchema is the extraction shape for a city listing page.
func ListingSchema(limit int) schema {
	return schema{
		"type": "object",
		"properties": schema{
			"restaurants": schema{
				"type":     "array",
				"minItems": 1,
				"maxItems": limit,
				"items": schema{
					"type":       "object",
					"properties": restaurantProperties("string"),
					"required":   []string{"name"},
				},
			},
		},
		"required": []string{"restaurants"},
	}
}

// SuggestionSchema is the completion shape used when no listing is
// available.
func SuggestionSchema() schema {
	return schema{
		"type": "object",
		"properties": schema{
			"restaurants": schema{
				"type":     "array",
				"minItems": 1,
				"items": schema{
					"type":       "object",
					"properties": restaurantProperties("number"),
				},
			},
		},
		"required": []string{"restaurants"},
	}
}
