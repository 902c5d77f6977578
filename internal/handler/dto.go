package handler

type ChatRequest struct {
	ProfileID string `json:"profile_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type ChatResponse struct {
	RequestID string `json:"request_id"`
	Intent    string `json:"intent"`
	Reply     string `json:"reply"`
}

type WeightResponse struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	LastUpdated string  `json:"last_updated"`
}

type ProfileResponse struct {
	ID      string           `json:"id"`
	Sources []WeightResponse `json:"sources"`
	Topics  []WeightResponse `json:"topics"`
}
