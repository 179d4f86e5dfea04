package server

import (
	"time"

	"github.com/iwvelando/mortgage-simulator/internal/conditions"
	"github.com/iwvelando/mortgage-simulator/internal/mortgage"
	"github.com/iwvelando/mortgage-simulator/internal/session"
)

type fieldView struct {
	Field   string      `json:"field"`
	Kind    string      `json:"kind"`
	Value   interface{} `json:"value"`
	Display string      `json:"display"`
	Warning string      `json:"warning,omitempty"`
}

type conditionView struct {
	Index  int         `json:"index"`
	Name   string      `json:"name"`
	Fields []fieldView `json:"fields"`
}

type sessionView struct {
	ID          string            `json:"id"`
	General     []fieldView       `json:"general"`
	Conditions  []conditionView   `json:"conditions"`
	Warnings    map[string]string `json:"warnings"`
	Advisories  []string          `json:"advisories,omitempty"`
	CanSubmit   bool              `json:"canSubmit"`
	Simulating  bool              `json:"simulating"`
	HasResults  bool              `json:"hasResults"`
	Metric      string            `json:"metric"`
	MetricLabel string            `json:"metricLabel"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func newSessionView(s *session.Session) sessionView {
	store := s.Store
	warnings := store.Warnings()

	general := make([]fieldView, 0, len(mortgage.GeneralFields))
	values := store.General()
	for _, f := range mortgage.GeneralFields {
		general = append(general, fieldView{
			Field:   string(f),
			Kind:    f.Kind().String(),
			Value:   values.Get(f),
			Display: store.DisplayGeneral(f),
			Warning: warnings[conditions.GeneralKey(f)],
		})
	}

	conds := store.Conditions()
	condViews := make([]conditionView, 0, len(conds))
	for i, c := range conds {
		fields := make([]fieldView, 0, len(mortgage.ConditionFields))
		for _, f := range mortgage.ConditionFields {
			display, _ := store.DisplayCondition(i, f)
			var value interface{} = c.Get(f)
			if f == mortgage.FieldName {
				value = c.Name
			}
			fields = append(fields, fieldView{
				Field:   string(f),
				Kind:    f.Kind().String(),
				Value:   value,
				Display: display,
				Warning: warnings[conditions.ConditionKey(i, f)],
			})
		}
		condViews = append(condViews, conditionView{Index: i, Name: c.Name, Fields: fields})
	}

	return sessionView{
		ID:          s.ID,
		General:     general,
		Conditions:  condViews,
		Warnings:    warnings,
		Advisories:  store.Validate(),
		CanSubmit:   s.CanSubmit(),
		Simulating:  s.Simulating,
		HasResults:  s.HasResults(),
		Metric:      string(s.Metric),
		MetricLabel: s.Metric.Label(),
		UpdatedAt:   s.UpdatedAt,
	}
}
