package types

type SearchRequest struct {
	Query string `json:"query" form:"q" binding:"required"`
}

type ListRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type CompareRequest struct {
	ContractIDs []string `json:"contractIds" binding:"required"`
}

type CompareResult struct {
	Comparison string `json:"comparison"`
	Provider   string `json:"provider"`
}

type ChatRequest struct {
	Message    string `json:"message" binding:"required"`
	ContractID string `json:"contractId"`
}

type ChatResult struct {
	Response string `json:"response"`
}

type VenueSearchRequest struct {
	Query    string `json:"query" binding:"required"`
	Location string `json:"location"`
}

type Venue struct {
	Name            string   `json:"name"`
	Location        string   `json:"location"`
	Type            string   `json:"type"`
	Capacity        string   `json:"capacity"`
	PriceRange      string   `json:"priceRange"`
	Rating          float64  `json:"rating"`
	Features        []string `json:"features"`
	BestFor         string   `json:"bestFor"`
	Contact         string   `json:"contact"`
	ImageKeyword    string   `json:"imageKeyword"`
	Description     string   `json:"description"`
	Amenities       []string `json:"amenities"`
	VenueHighlights []string `json:"venueHighlights"`
}

type VenueSearchResult struct {
	Venues []Venue `json:"venues"`
	Error  string  `json:"error,omitempty"`
}

type ListResult struct {
	Contracts []ContractRecord `json:"contracts"`
	Total     int64            `json:"total"`
}
