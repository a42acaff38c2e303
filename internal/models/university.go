package models

// University is one entry of the public university directory.
type University struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
	StateProvince *string  `json:"state-province"`
	Domains       []string `json:"domains"`
	WebPages      []string `json:"web_pages"`
}

type UniversityQuery struct {
	Name    string `form:"name" validate:"omitempty,max=200"`
	Country string `form:"country" validate:"omitempty,max=100"`
}

// Empty reports whether the query has no filter at all.
func (q UniversityQuery) Empty() bool { return q.Name == "" && q.Country == "" }
