package sample

// SampleGroups returns fresh copies of the built-in sample records, in the
// untyped shape read from JSON files.
func SampleGroups() []map[string]any {
	return []map[string]any{
		{
			"group_id":         "GRP_12345",
			"group_name":       "Acme Corporation Health Plan",
			"group_type":       "corporate",
			"effective_date":   "2024-01-01",
			"termination_date": nil,
			"status":           "active",
			"members": []any{
				map[string]any{
					"member_id":     "GRP_12345_M1001",
					"first_name":    "John",
					"last_name":     "Doe",
					"email":         "john.doe@acme.com",
					"phone":         "+1-555-0123",
					"date_of_birth": "1985-03-15",
					"address": map[string]any{
						"street":   "123 Main St",
						"city":     "New York",
						"state":    "NY",
						"zip_code": "10001",
						"country":  "USA",
					},
					"enrollment_date": "2024-01-01",
					"status":          "active",
				},
				map[string]any{
					"member_id":     "GRP_12345_M1002",
					"first_name":    "Jane",
					"last_name":     "Smith",
					"email":         "jane.smith@acme.com",
					"phone":         "+1-555-0124",
					"date_of_birth": "1990-07-22",
					"address": map[string]any{
						"street":   "456 Oak Ave",
						"city":     "New York",
						"state":    "NY",
						"zip_code": "10002",
						"country":  "USA",
					},
					"enrollment_date": "2024-01-01",
					"status":          "active",
				},
			},
			"metadata": map[string]any{
				"plan_type":         "PPO",
				"coverage_level":    "employee_plus_family",
				"premium_amount":    1200.00,
				"deductible":        2000,
				"max_out_of_pocket": 5000,
			},
		},
	}
}
