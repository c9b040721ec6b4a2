package api

type forecastRequest struct {
	Crop  string `query:"crop" validate:"required,max=100"`
	Mandi string `query:"mandi" validate:"required,max=150"`
	Days  *int   `query:"days" default:"7" validate:"required,min=1"`
}

type pairRequest struct {
	Crop  string `query:"crop" validate:"required,max=100"`
	Mandi string `query:"mandi" validate:"required,max=150"`
}

type trendRequest struct {
	Crop  string `query:"crop" validate:"required,max=100"`
	Mandi string `query:"mandi" validate:"required,max=150"`
	Limit *int   `query:"limit" default:"30" validate:"required,min=1,max=365"`
}

type ratesRequest struct {
	Commodity string `query:"commodity" validate:"required,max=100"`
	Market    string `query:"market" validate:"required,max=150"`
}

type bestMandiRequest struct {
	Commodity string `query:"commodity" validate:"required,max=100"`
}

type distanceRequest struct {
	Lat   *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lon   *float64 `query:"lon" validate:"required,min=-180,max=180"`
	Mandi string   `query:"mandi" validate:"required,max=150"`
}
