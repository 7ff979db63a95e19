package insight

import (
	"fmt"

	"gafi-insights/internal/icons"
	"gafi-insights/internal/mascot"
	"gafi-insights/internal/models"
)

// Budget-used thresholds for the rule-based records.
const (
	budgetNoticePct   = 75.0
	budgetWarningPct  = 90.0
	budgetExceededPct = 100.0
)

// deterministic derives 1-4 records straight from the numbers. This
// path has no external dependency and is the guarantee behind the
// Synthesize no-fail contract.
func (o *Orchestrator) deterministic(domain models.DomainContext) []models.InsightRecord {
	out := make([]models.InsightRecord, 0, 4)

	if top, share, ok := topCategory(domain); ok {
		message := fmt.Sprintf("%s is your biggest expense at %s.", top.Name, formatAmount(domain, top.Amount))
		if share > 0 {
			message = fmt.Sprintf("%s is your biggest expense at %s, %.0f%% of everything you spent.",
				top.Name, formatAmount(domain, top.Amount), share)
		}
		out = append(out, models.InsightRecord{
			ID:      o.newID(),
			Type:    models.InsightInfo,
			Title:   "Top spending category",
			Message: message,
			Icon:    icons.PieChart,
			Color:   models.InsightInfo.DefaultColor(),
		})
	}

	if record, ok := o.budgetRecord(domain); ok {
		out = append(out, record)
	}

	tip := mascot.TipAt(int(domain.TotalSpent))
	out = append(out, models.InsightRecord{
		ID:      o.newID(),
		Type:    models.InsightInfo,
		Title:   tip.Title,
		Message: tip.Content,
		Icon:    icons.Bulb,
		Color:   models.InsightInfo.DefaultColor(),
	})

	return out
}

func (o *Orchestrator) budgetRecord(domain models.DomainContext) (models.InsightRecord, bool) {
	if domain.TotalBudget <= 0 {
		return models.InsightRecord{}, false
	}
	used := domain.TotalSpent / domain.TotalBudget * 100

	switch {
	case used >= budgetExceededPct:
		return models.InsightRecord{
			ID:      o.newID(),
			Type:    models.InsightError,
			Title:   "Budget exceeded",
			Message: fmt.Sprintf("You've spent %.0f%% of your budget. Time to pause non-essential purchases.", used),
			Icon:    icons.AlertCircle,
			Color:   models.InsightError.DefaultColor(),
		}, true
	case used >= budgetWarningPct:
		return models.InsightRecord{
			ID:      o.newID(),
			Type:    models.InsightWarning,
			Title:   "Almost at your limit",
			Message: fmt.Sprintf("You've used %.0f%% of your budget. Only %s left this period.", used, formatAmount(domain, domain.TotalBudget-domain.TotalSpent)),
			Icon:    icons.Warning,
			Color:   models.InsightWarning.DefaultColor(),
		}, true
	case used >= budgetNoticePct:
		return models.InsightRecord{
			ID:      o.newID(),
			Type:    models.InsightWarning,
			Title:   "Three quarters spent",
			Message: fmt.Sprintf("You've used %.0f%% of your budget. Keep an eye on the remaining %s.", used, formatAmount(domain, domain.TotalBudget-domain.TotalSpent)),
			Icon:    icons.TrendingUp,
			Color:   models.InsightWarning.DefaultColor(),
		}, true
	default:
		return models.InsightRecord{
			ID:      o.newID(),
			Type:    models.InsightSuccess,
			Title:   "On track",
			Message: fmt.Sprintf("You've used %.0f%% of your budget so far. Nice pacing.", used),
			Icon:    icons.CheckmarkCircle,
			Color:   models.InsightSuccess.DefaultColor(),
		}, true
	}
}

func topCategory(domain models.DomainContext) (models.CategorySpend, float64, bool) {
	var top models.CategorySpend
	found := false
	for _, category := range domain.Categories {
		if category.Amount <= 0 {
			continue
		}
		if !found || category.Amount > top.Amount {
			top = category
			found = true
		}
	}
	if !found {
		return models.CategorySpend{}, 0, false
	}
	var share float64
	if domain.TotalSpent > 0 {
		share = top.Amount / domain.TotalSpent * 100
	}
	return top, share, true
}

func formatAmount(domain models.DomainContext, amount float64) string {
	symbol := "₱"
	if domain.Currency != "" && domain.Currency != "PHP" {
		symbol = domain.Currency + " "
	}
	return fmt.Sprintf("%s%.2f", symbol, amount)
}
