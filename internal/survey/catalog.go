package survey

import (
	"fmt"
	"sort"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
)

const (
	UncategorizedLabel = "Uncategorized"
	// DefaultRank sorts categories without a rank after every ranked one.
	DefaultRank = 999
)

type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type Category struct {
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Rank      int        `json:"rank"`
	Questions []Question `json:"questions"`
}

// Catalog is the ordered, immutable set of categories a session walks through.
type Catalog struct {
	categories []Category
	index      map[string]int
	questions  map[string]map[string]struct{}
	total      int
}

// NewCatalog takes categories already in traversal order.
func NewCatalog(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		categories: make([]Category, len(categories)),
		index:      make(map[string]int, len(categories)),
		questions:  make(map[string]map[string]struct{}, len(categories)),
	}
	for i, cat := range categories {
		if _, dup := c.index[cat.Key]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Key)
		}
		if len(cat.Questions) == 0 {
			return nil, fmt.Errorf("category %q has no questions", cat.Key)
		}
		ids := make(map[string]struct{}, len(cat.Questions))
		for _, q := range cat.Questions {
			if _, dup := ids[q.ID]; dup {
				return nil, fmt.Errorf("duplicate question %q in category %q", q.ID, cat.Key)
			}
			ids[q.ID] = struct{}{}
		}

		cat.Questions = append([]Question(nil), cat.Questions...)
		c.categories[i] = cat
		c.index[cat.Key] = i
		c.questions[cat.Key] = ids
		c.total += len(cat.Questions)
	}
	return c, nil
}

// BuildCatalog groups raw backend records into categories ordered by rank,
// ties broken by the order in which each category first appears.
func BuildCatalog(records []models.QuestionRecord) (*Catalog, error) {
	var grouped []Category
	position := make(map[string]int)

	for _, rec := range records {
		key := rec.Category
		if key == "" {
			key = UncategorizedLabel
		}

		i, ok := position[key]
		if !ok {
			rank := DefaultRank
			if rec.Rank != nil {
				rank = *rec.Rank
			}
			grouped = append(grouped, Category{Key: key, Title: key, Rank: rank})
			i = len(grouped) - 1
			position[key] = i
		}

		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("%s_Q%d", key, len(grouped[i].Questions)+1)
		}
		grouped[i].Questions = append(grouped[i].Questions, Question{ID: id, Text: rec.Text})
	}

	sort.SliceStable(grouped, func(a, b int) bool {
		return grouped[a].Rank < grouped[b].Rank
	})

	return NewCatalog(grouped)
}

func (c *Catalog) Len() int { return len(c.categories) }

// QuestionCount is the total number of questions across all categories.
func (c *Catalog) QuestionCount() int { return c.total }

func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.categories))
	for i, cat := range c.categories {
		keys[i] = cat.Key
	}
	return keys
}

func (c *Catalog) Category(key string) (Category, bool) {
	i, ok := c.index[key]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

func (c *Catalog) Has(categoryKey, questionID string) bool {
	ids, ok := c.questions[categoryKey]
	if !ok {
		return false
	}
	_, ok = ids[questionID]
	return ok
}

func (c *Catalog) at(i int) *Category { return &c.categories[i] }

func (c *Catalog) indexOf(key string) (int, bool) {
	i, ok := c.index[key]
	return i, ok
}
