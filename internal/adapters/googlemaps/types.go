package googlemaps

type directionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []route `json:"routes"`
}

type route struct {
	Summary          string   `json:"summary"`
	Legs             []leg    `json:"legs"`
	OverviewPolyline polyline `json:"overview_polyline"`
}

type leg struct {
	Distance          *value `json:"distance"`
	Duration          *value `json:"duration"`
	DurationInTraffic *value `json:"duration_in_traffic"`
	Steps             []step `json:"steps"`
}

type step struct {
	HTMLInstructions string   `json:"html_instructions"`
	Distance         *value   `json:"distance"`
	Duration         *value   `json:"duration"`
	Polyline         polyline `json:"polyline"`
}

type polyline struct {
	Points string `json:"points"`
}

type value struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

func (v *value) val() int {
	if v == nil {
		return 0
	}
	return v.Value
}

type placeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Result       *struct {
		Name     string `json:"name"`
		Geometry *struct {
			Location *latLng `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
