package survey

// Key addresses one question inside its category.
type Key struct {
	CategoryKey string
	QuestionID  string
}

// String flattens the key as "category_question", the form used in the
// submission payload. Question ids are only unique within a category.
func (k Key) String() string { return k.CategoryKey + "_" + k.QuestionID }

// Ledger records the answers given so far. Absence of a key means the
// question has not been answered.
type Ledger struct {
	entries map[Key]Answer
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[Key]Answer)}
}

// Set validates and records an answer, replacing any previous entry.
func (l *Ledger) Set(key Key, answer Answer) error {
	if err := answer.validate(); err != nil {
		return err
	}
	l.entries[key] = answer
	return nil
}

func (l *Ledger) Delete(key Key) {
	delete(l.entries, key)
}

func (l *Ledger) Get(key Key) (Answer, bool) {
	a, ok := l.entries[key]
	return a, ok
}

func (l *Ledger) IsAnswered(key Key) bool {
	_, ok := l.entries[key]
	return ok
}

func (l *Ledger) Len() int { return len(l.entries) }

// CountUnanswered counts catalog questions without a ledger entry. Entries
// for keys outside the catalog are ignored.
func (l *Ledger) CountUnanswered(c *Catalog) int {
	answered := 0
	for _, cat := range c.categories {
		answered += l.answeredIn(&cat)
	}
	return c.total - answered
}

// AnsweredIn counts the answered questions of one category.
func (l *Ledger) AnsweredIn(c *Catalog, categoryKey string) int {
	i, ok := c.indexOf(categoryKey)
	if !ok {
		return 0
	}
	return l.answeredIn(c.at(i))
}

func (l *Ledger) answeredIn(cat *Category) int {
	n := 0
	for _, q := range cat.Questions {
		if l.IsAnswered(Key{CategoryKey: cat.Key, QuestionID: q.ID}) {
			n++
		}
	}
	return n
}

// Entries returns a copy of the recorded answers.
func (l *Ledger) Entries() map[Key]Answer {
	out := make(map[Key]Answer, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}
