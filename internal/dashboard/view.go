package dashboard

import (
	"weatherdash/internal/types"
)

// WeatherView decorates a raw snapshot with the human-readable condition
// label and icon class derived from the numeric weather code.
type WeatherView struct {
	types.WeatherSnapshot
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
}

// CityView is one watchlist card: the city, its latest snapshot if any, and
// the error marker from its last failed fetch.
type CityView struct {
	types.WatchlistCity
	Weather    *WeatherView `json:"weather,omitempty"`
	FetchError string       `json:"fetch_error,omitempty"`
}

// View is the full read-only dashboard snapshot served to clients.
type View struct {
	PrimaryLocation   *types.Location `json:"primary_location,omitempty"`
	PrimaryWeather    *WeatherView    `json:"primary_weather,omitempty"`
	PrimaryError      string          `json:"primary_error,omitempty"`
	GeolocationDenied bool            `json:"geolocation_denied"`
	Loading           bool            `json:"loading"`
	Watchlist         []CityView      `json:"watchlist"`
}

func decorate(snap *types.WeatherSnapshot) *WeatherView {
	if snap == nil {
		return nil
	}
	clone := *snap
	return &WeatherView{
		WeatherSnapshot: clone,
		Condition:       types.DescribeWeatherCode(clone.Current.WeatherCode),
		Icon:            types.WeatherIconClass(clone.Current.WeatherCode),
	}
}

// buildViewLocked assembles a View from the live aggregate. Callers must
// hold s.mu.
func (s *Service) buildViewLocked() *View {
	state := s.state.Clone()

	v := &View{
		PrimaryLocation:   state.PrimaryLocation,
		PrimaryWeather:    decorate(s.primaryWeather),
		PrimaryError:      s.primaryErr,
		GeolocationDenied: state.GeolocationDenied,
		Loading:           state.Loading,
		Watchlist:         make([]CityView, 0, len(state.Watchlist)),
	}

	for _, city := range state.Watchlist {
		v.Watchlist = append(v.Watchlist, CityView{
			WatchlistCity: city,
			Weather:       decorate(state.WeatherByCityID[city.ID]),
			FetchError:    s.fetchErrors[city.ID],
		})
	}

	return v
}
