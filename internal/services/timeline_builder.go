package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/domain/recommendation"
)

// BuildTimeline lays risk area deadlines, recommendation deadlines and
// review checkpoints on one chronologically ordered timeline. The critical
// path is the dates of the high importance events.
func BuildTimeline(areas []compliance.RiskArea, recs []recommendation.Recommendation, now time.Time) compliance.Timeline {
	var events []compliance.TimelineEvent

	for _, area := range areas {
		events = append(events, compliance.TimelineEvent{
			Date:        area.Deadline,
			Description: fmt.Sprintf("%s deadline (%s)", area.Area, area.ImpactDescription),
			Importance:  riskImportance(area.RiskScore),
			Type:        compliance.EventTypeDeadline,
		})
	}

	for _, rec := range recs {
		events = append(events, compliance.TimelineEvent{
			Date:        rec.Deadline,
			Description: rec.Title,
			Importance:  priorityImportance(rec.Priority),
			Type:        compliance.EventTypeInternal,
		})
	}

	for _, area := range areas {
		if area.RiskScore <= 0.5 {
			continue
		}
		midpoint := now.Add(area.Deadline.Sub(now) / 2)
		events = append(events, compliance.TimelineEvent{
			Date:        midpoint,
			Description: fmt.Sprintf("%s progress review", area.Area),
			Importance:  compliance.ImportanceMedium,
			Type:        compliance.EventTypeReview,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	critical := make([]time.Time, 0)
	for _, ev := range events {
		if ev.Importance == compliance.ImportanceHigh {
			critical = append(critical, ev.Date)
		}
	}

	if events == nil {
		events = []compliance.TimelineEvent{}
	}
	return compliance.Timeline{Events: events, CriticalPath: critical}
}

func riskImportance(score float64) string {
	switch {
	case score > 0.7:
		return compliance.ImportanceHigh
	case score > 0.4:
		return compliance.ImportanceMedium
	default:
		return compliance.ImportanceLow
	}
}

func priorityImportance(priority string) string {
	switch priority {
	case recommendation.PriorityCritical, recommendation.PriorityHigh:
		return compliance.ImportanceHigh
	case recommendation.PriorityMedium:
		return compliance.ImportanceMedium
	default:
		return compliance.ImportanceLow
	}
}
