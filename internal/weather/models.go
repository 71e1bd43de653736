package weather

// Forecast is the hourly weather forecast for one location, passed
// through from the upstream provider.
type Forecast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Hourly    Hourly  `json:"hourly"`
}

// Hourly carries parallel arrays, one value per forecast hour.
type Hourly struct {
	Time          []string  `json:"time"`
	Temperature   []float64 `json:"temperature_2m"`
	Precipitation []float64 `json:"precipitation"`
	CloudCover    []float64 `json:"cloud_cover"`
	WindSpeed     []float64 `json:"windspeed_10m"`
}

// hourlyVariables is the fixed set requested from the provider; the
// field names in Hourly must stay in sync with it.
const hourlyVariables = "temperature_2m,precipitation,cloud_cover,windspeed_10m"
