package nowcast

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/rain-nowcast/internal/rain"
)

// BuildReport reads every accessor of n once and assembles a Report.
// If loc has no coordinates, the payload position is used.
func BuildReport(n *rain.Nowcast, loc Location, fetchedAt time.Time) (Report, error) {
	pos, err := n.Position()
	if err != nil {
		return Report{}, fmt.Errorf("position: %w", err)
	}
	updated, err := n.UpdatedOn()
	if err != nil {
		return Report{}, fmt.Errorf("updated on: %w", err)
	}
	slots, err := n.Forecast()
	if err != nil {
		return Report{}, fmt.Errorf("forecast: %w", err)
	}

	views := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		local, err := n.ToLocalTime(s.Timestamp)
		if err != nil {
			return Report{}, fmt.Errorf("slot time: %w", err)
		}
		views = append(views, SlotView{
			Time:          local,
			Timestamp:     s.Timestamp,
			RainIntensity: s.RainIntensity,
			Description:   s.Description,
			Label:         rain.IntensityLabel(s.RainIntensity),
		})
	}

	var nextRain *time.Time
	onset, ok, err := n.NextRainOnset()
	if err != nil {
		return Report{}, fmt.Errorf("next rain: %w", err)
	}
	if ok {
		nextRain = &onset
	}

	if loc.Lat == 0 && loc.Lon == 0 {
		loc.Lat, loc.Lon = pos.Lat, pos.Lon
	}
	if loc.City == "" {
		loc.City = pos.Name
	}

	return Report{
		ID:        uuid.New(),
		Location:  loc,
		Format:    n.Shape().String(),
		Position:  pos,
		UpdatedOn: time.Unix(updated, 0).UTC(),
		Quality:   n.Quality(),
		Slots:     views,
		NextRain:  nextRain,
		FetchedAt: fetchedAt.UTC(),
	}, nil
}
