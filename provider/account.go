package provider

// AccountStatus reports which premium model families a key can see.
type AccountStatus struct {
	IsPaid      bool            `json:"is_paid"`
	AccountType string          `json:"account_type"`
	Features    map[string]bool `json:"features"`
}

// Category is one group of the model summary.
type Category struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Models []string `json:"models"`
}

// Summary groups a model list by the provider's family markers.
type Summary struct {
	TotalModels int        `json:"total_models"`
	Categories  []Category `json:"categories"`
	OtherModels int        `json:"other_models"`
	AllModels   []string   `json:"all_models"`
}

const (
	accountPaid = "Paid"
	accountFree = "Free"
)

func accountType(id string, models []Model) string {
	s, ok := lookupSpec(id)
	if !ok {
		return accountFree
	}
	for _, m := range s.paid {
		if anyModelContains(models, m.Substr) {
			return accountPaid
		}
	}
	return accountFree
}

// GetAccountStatus derives the account status from an already fetched model list.
func GetAccountStatus(id string, models []Model) AccountStatus {
	status := AccountStatus{
		AccountType: accountFree,
		Features:    map[string]bool{},
	}
	s, ok := lookupSpec(id)
	if !ok {
		return status
	}
	for _, f := range s.features {
		has := anyModelContains(models, f.Substr)
		status.Features[f.Key] = has
		if has {
			status.IsPaid = true
		}
	}
	if status.IsPaid {
		status.AccountType = accountPaid
	}
	return status
}

// Summarize counts models per family. A model may fall into several categories;
// "other" holds the ones matching none.
func Summarize(id string, models []Model) Summary {
	summary := Summary{
		TotalModels: len(models),
		AllModels:   make([]string, 0, len(models)),
		Categories:  []Category{},
	}
	s, _ := lookupSpec(id)

	for _, c := range s.categories {
		summary.Categories = append(summary.Categories, Category{Name: c.Key, Models: []string{}})
	}

	for _, m := range models {
		summary.AllModels = append(summary.AllModels, m.ID)
		matched := false
		for i, c := range s.categories {
			if containsFold(m.ID, c.Substr) {
				summary.Categories[i].Models = append(summary.Categories[i].Models, m.ID)
				summary.Categories[i].Count++
				matched = true
			}
		}
		if !matched {
			summary.OtherModels++
		}
	}
	return summary
}

func anyModelContains(models []Model, substr string) bool {
	for _, m := range models {
		if containsFold(m.ID, substr) {
			return true
		}
	}
	return false
}
