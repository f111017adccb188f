package memory

import (
	"github.com/rcliao/memoryd/internal/model"
)

// Normalize converts the extraction oracle's raw JSON tree into the
// canonical category schema, dropping anything that does not fit:
// unknown category keys, non-object category values, non-array subcategory
// values, and non-string facts. The literal subcategory key "null" (the
// oracle's convention) maps to the no-subcategory bucket. Categories left
// empty after filtering are omitted entirely.
func Normalize(raw map[string]any) map[model.Category]map[string][]string {
	result := make(map[model.Category]map[string][]string)

	for _, cat := range model.Categories() {
		catData, ok := raw[string(cat)].(map[string]any)
		if !ok {
			continue
		}

		buckets := make(map[string][]string)
		for sub, v := range catData {
			facts, ok := v.([]any)
			if !ok {
				continue
			}
			key := sub
			if sub == "null" || sub == "None" {
				key = model.NoSubcategory
			}
			for _, f := range facts {
				if s, ok := f.(string); ok {
					buckets[key] = append(buckets[key], s)
				}
			}
		}

		if len(buckets) > 0 {
			result[cat] = buckets
		}
	}

	return result
}
