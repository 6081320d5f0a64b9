package types

// weatherCodeText maps WMO weather interpretation codes to display text
// (https://open-meteo.com/en/docs).
var weatherCodeText = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snowfall",
	73: "Moderate snowfall",
	75: "Heavy snowfall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeWeatherCode returns the display text for a WMO weather code, or
// "Unknown" for codes outside the published table.
func DescribeWeatherCode(code int) string {
	if text, ok := weatherCodeText[code]; ok {
		return text
	}
	return "Unknown"
}

// WeatherIconClass buckets a WMO code into one of the dashboard's icon
// classes. The bands follow the code ranges of the WMO table: clear,
// cloudy, drizzle/rain, freezing rain, snow, showers, thunderstorm.
func WeatherIconClass(code int) string {
	switch {
	case code == 0:
		return "sun"
	case code <= 3:
		return "cloud-sun"
	case code <= 55:
		return "cloud-rain"
	case code <= 67:
		return "icicles"
	case code <= 77:
		return "snowflake"
	case code <= 86:
		return "cloud-showers"
	default:
		return "bolt"
	}
}
