package types

import "time"

// Location is the dashboard's primary place: either the geolocation-derived
// position or a manually searched city. A new search or geolocation grant
// replaces it wholesale; it is never merged or patched in place.
type Location struct {
	Name              string  `json:"name"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	IsCurrentLocation bool    `json:"is_current_location"`
	DisplayName       string  `json:"display_name"`
}

// WatchlistCity is a city pinned to the watchlist, distinct from the primary
// Location. The ID is assigned monotonically at creation, is stable for the
// city's lifetime, and joins the city to its entry in WeatherByCityID.
type WatchlistCity struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country,omitempty"`
	DisplayName string  `json:"display_name"`
}

// CurrentConditions mirrors the Open-Meteo "current" block.
type CurrentConditions struct {
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity    int     `json:"relative_humidity_2m"`
	Precipitation       float64 `json:"precipitation"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WeatherCode         int     `json:"weather_code"`
}

// DailyForecast mirrors the Open-Meteo "daily" block. The arrays are
// columnar: index i across all fields describes the same day.
type DailyForecast struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weather_code"`
	TemperatureMax   []float64 `json:"temperature_2m_max"`
	TemperatureMin   []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
}

// WeatherSnapshot is one city's weather at a point in time. A successful
// fetch replaces the whole snapshot; there is no partial merge. An absent
// snapshot means "not yet loaded" or "failed and not yet retried".
type WeatherSnapshot struct {
	Current   CurrentConditions `json:"current"`
	Daily     DailyForecast     `json:"daily"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// AppState is the persisted dashboard aggregate. Every mutating operation
// re-serializes the whole aggregate back to the store; there is no
// incremental persistence.
//
// Invariants:
//   - len(Watchlist) never exceeds the configured maximum (5 by default)
//   - watchlist names are unique case-insensitively
//   - every key in WeatherByCityID belongs to a city currently in Watchlist
//   - NextCityID is strictly greater than every assigned city ID
type AppState struct {
	PrimaryLocation   *Location                  `json:"primary_location,omitempty"`
	Watchlist         []WatchlistCity            `json:"watchlist"`
	GeolocationDenied bool                       `json:"geolocation_denied"`
	WeatherByCityID   map[int64]*WeatherSnapshot `json:"weather_by_city_id"`
	NextCityID        int64                      `json:"next_city_id"`

	// Loading is a transient UI flag covering an in-flight RefreshAll.
	// It is never persisted and always starts false on a fresh load.
	Loading bool `json:"-"`
}

// NewAppState returns the empty first-run state: no primary location, empty
// watchlist, consent undecided.
func NewAppState() *AppState {
	return &AppState{
		Watchlist:       []WatchlistCity{},
		WeatherByCityID: make(map[int64]*WeatherSnapshot),
		NextCityID:      1,
	}
}

// Normalize repairs a freshly deserialized state: nil collections become
// empty, snapshots for cities no longer on the watchlist are pruned, the
// ID high-water mark is advanced past every assigned ID, and the transient
// loading flag is cleared.
func (s *AppState) Normalize() {
	if s.Watchlist == nil {
		s.Watchlist = []WatchlistCity{}
	}
	if s.WeatherByCityID == nil {
		s.WeatherByCityID = make(map[int64]*WeatherSnapshot)
	}

	present := make(map[int64]struct{}, len(s.Watchlist))
	for _, c := range s.Watchlist {
		present[c.ID] = struct{}{}
		if c.ID >= s.NextCityID {
			s.NextCityID = c.ID + 1
		}
	}
	for id := range s.WeatherByCityID {
		if _, ok := present[id]; !ok {
			delete(s.WeatherByCityID, id)
		}
	}

	if s.NextCityID < 1 {
		s.NextCityID = 1
	}
	s.Loading = false
}

// Clone returns a deep copy of the state. Handlers serve clones so that the
// live aggregate is never exposed outside the owning service.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		GeolocationDenied: s.GeolocationDenied,
		NextCityID:        s.NextCityID,
		Loading:           s.Loading,
		Watchlist:         make([]WatchlistCity, len(s.Watchlist)),
		WeatherByCityID:   make(map[int64]*WeatherSnapshot, len(s.WeatherByCityID)),
	}
	copy(out.Watchlist, s.Watchlist)
	if s.PrimaryLocation != nil {
		loc := *s.PrimaryLocation
		out.PrimaryLocation = &loc
	}
	for id, snap := range s.WeatherByCityID {
		c := *snap
		c.Daily = cloneDaily(snap.Daily)
		out.WeatherByCityID[id] = &c
	}
	return out
}

func cloneDaily(d DailyForecast) DailyForecast {
	return DailyForecast{
		Time:             append([]string(nil), d.Time...),
		WeatherCode:      append([]int(nil), d.WeatherCode...),
		TemperatureMax:   append([]float64(nil), d.TemperatureMax...),
		TemperatureMin:   append([]float64(nil), d.TemperatureMin...),
		PrecipitationSum: append([]float64(nil), d.PrecipitationSum...),
		WindSpeedMax:     append([]float64(nil), d.WindSpeedMax...),
	}
}

// ComposeDisplayName builds the "Name, Country" label used for both the
// primary location and watchlist cards. The country part is optional.
func ComposeDisplayName(name, country string) string {
	if country == "" {
		return name
	}
	return name + ", " + country
}
