// Package status builds the dashboard view: per-bot runtime classification,
// the aggregate running count and the periodically refreshed bot listing.
package status

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"telematic/internal/database"
	"telematic/internal/manager"
)

// Classification is the display form of a runtime state.
type Classification struct {
	Label    string `json:"label"`
	Emphasis string `json:"emphasis"`
}

// Classify maps a runtime state to its label and emphasis. It is total:
// states this version does not know yet classify as stopped, so newer
// servers never break the dashboard.
func Classify(s manager.State) Classification {
	switch s {
	case manager.StateRunning:
		return Classification{Label: "Работает", Emphasis: "success"}
	case manager.StateStarting:
		return Classification{Label: "Запускается", Emphasis: "warning"}
	case manager.StateError:
		return Classification{Label: "Ошибка", Emphasis: "danger"}
	default:
		return Classification{Label: "Остановлен", Emphasis: "neutral"}
	}
}

// BotView is one dashboard row.
type BotView struct {
	database.Bot
	Status         manager.Status `json:"status"`
	Classification Classification `json:"classification"`
}

// Summary is the aggregate "N of M running" counter. Starting bots count
// as active.
type Summary struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

// Overview is the full dashboard payload.
type Overview struct {
	Bots    []BotView `json:"bots"`
	Summary Summary   `json:"summary"`
}

// BuildOverview composes the dashboard from a bot listing and the runtime
// snapshot, sorted by display name with Russian collation.
func BuildOverview(bots []database.Bot, states map[string]manager.Status) Overview {
	views := make([]BotView, 0, len(bots))
	summary := Summary{Total: len(bots)}

	for _, bot := range bots {
		st, ok := states[bot.ID]
		if !ok {
			st = manager.Status{State: manager.StateStopped}
		}
		if st.State == manager.StateRunning || st.State == manager.StateStarting {
			summary.Active++
		}
		views = append(views, BotView{
			Bot:            bot,
			Status:         st,
			Classification: Classify(st.State),
		})
	}

	c := collate.New(language.Russian)
	sort.SliceStable(views, func(i, j int) bool {
		return c.CompareString(views[i].Name, views[j].Name) < 0
	})

	return Overview{Bots: views, Summary: summary}
}
