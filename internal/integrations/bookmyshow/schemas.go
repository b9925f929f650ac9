package bookmyshow

type schema = map[string]any

func stringProp() schema {
	return schema{"type": "string"}
}

func stringList() schema {
	return schema{"type": "array", "items": stringProp()}
}

// MoviesSchema is the extraction shape for the movie listing.
func MoviesSchema(limit int) schema {
	return schema{
		"type": "object",
		"properties": schema{
			"movies": schema{
				"type":     "array",
				"minItems": 1,
				"maxItems": limit,
				"items": schema{
					"type": "object",
					"properties": schema{
						"title":        stringProp(),
						"language":     stringProp(),
						"languages":    stringList(),
						"format":       stringProp(),
						"formats":      stringList(),
						"genre":        stringList(),
						"certificate":  stringProp(),
						"duration":     stringProp(),
						"release_date": stringProp(),
						"poster_url":   stringProp(),
						"booking_link": stringProp(),
						"movie_id":     stringProp(),
					},
					"required": []string{"title"},
				},
			},
		},
		"required": []string{"movies"},
	}
}

// DirectorySchema is the extraction shape for the city cinema directory.
func DirectorySchema() schema {
	return schema{
		"type": "object",
		"properties": schema{
			"cinemas": schema{
				"type": "array",
				"items": schema{
					"type": "object",
					"properties": schema{
						"name":       stringProp(),
						"location":   stringProp(),
						"address":    stringProp(),
						"amenities":  stringList(),
						"distance":   stringProp(),
						"image":      stringProp(),
						"bookingUrl": stringProp(),
					},
					"required": []string{"name"},
				},
			},
		},
		"required": []string{"cinemas"},
	}
}

// ShowtimeSchema is the extraction shape for one movie's ticketing page.
func ShowtimeSchema() schema {
	return schema{
		"type": "object",
		"properties": schema{
			"cinemas": schema{
				"type": "array",
				"items": schema{
					"type": "object",
					"properties": schema{
						"name":      stringProp(),
						"location":  stringProp(),
						"address":   stringProp(),
						"show_date": stringProp(),
						"showtimes": schema{
							"type": "array",
							"items": schema{
								"type": "object",
								"properties": schema{
									"time":         stringProp(),
									"format":       stringProp(),
									"language":     stringProp(),
									"price_range":  stringProp(),
									"availability": stringProp(),
									"booking_url":  stringProp(),
								},
							},
						},
					},
					"required": []string{"name"},
				},
			},
		},
		"required": []string{"cinemas"},
	}
}
