package graph

// Object is a Graph node resolved by id or vanity name
type Object struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RawPost is a post node as returned by the posts connection. Optional
// edges are pointers so a missing edge can be told apart from a zero count.
type RawPost struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Message     *string      `json:"message,omitempty"`
	CreatedTime string       `json:"created_time"`
	Shares      *ShareCount  `json:"shares,omitempty"`
	Likes       *EdgeSummary `json:"likes,omitempty"`
	Comments    *EdgeSummary `json:"comments,omitempty"`
}

// ShareCount is the shares field of a post
type ShareCount struct {
	Count int `json:"count"`
}

// EdgeSummary is an edge requested with summary(true)
type EdgeSummary struct {
	Summary struct {
		TotalCount int `json:"total_count"`
	} `json:"summary"`
}

// Paging holds the cursor links of a connection page
type Paging struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// Page is one page of the posts connection
type Page struct {
	Data   []RawPost `json:"data"`
	Paging *Paging   `json:"paging,omitempty"`
}

// NextURL returns the absolute URL of the following page, or "" when this
// is the last one
func (p *Page) NextURL() string {
	if p == nil || p.Paging == nil {
		return ""
	}
	return p.Paging.Next
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	TraceID      string `json:"fbtrace_id,omitempty"`
}
