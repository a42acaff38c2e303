package survey

type CategoryScore struct {
	Category string  `json:"category"`
	Sum      float64 `json:"sum"`
	Average  float64 `json:"avg"`
}

// Result is computed once at submission and never changes afterwards.
type Result struct {
	Categories    []CategoryScore `json:"categoryScores"`
	Overall       float64         `json:"overall"`
	QuestionCount int             `json:"questionCount"`
}

// ComputeResult scores every category in catalog order. Unanswered and
// "not relevant" questions add nothing to the sum but still count towards the
// category size, so the average is always sum / len(questions).
func ComputeResult(c *Catalog, l *Ledger) Result {
	res := Result{
		Categories:    make([]CategoryScore, 0, len(c.categories)),
		QuestionCount: c.total,
	}
	for _, cat := range c.categories {
		var sum float64
		for _, q := range cat.Questions {
			if a, ok := l.Get(Key{CategoryKey: cat.Key, QuestionID: q.ID}); ok {
				sum += a.Score()
			}
		}
		var avg float64
		if n := len(cat.Questions); n > 0 {
			avg = sum / float64(n)
		}
		res.Categories = append(res.Categories, CategoryScore{Category: cat.Key, Sum: sum, Average: avg})
		res.Overall += sum
	}
	return res
}

// NormalizedOverall maps the overall sum back onto the 0–10 slider scale.
func (r Result) NormalizedOverall() float64 {
	if r.QuestionCount == 0 {
		return 0
	}
	return r.Overall / float64(r.QuestionCount)
}

// Score returns the score of one category.
func (r Result) Score(category string) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == category {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

func (r Result) clone() Result {
	r.Categories = append([]CategoryScore(nil), r.Categories...)
	return r
}
