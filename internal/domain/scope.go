package domain

// Scope is what a view of the article list is restricted to. Exactly one is
// active in a view at a time.
type Scope interface {
	apply(f *ArticleFilter)
}

type FeedScope struct {
	FeedID int64
}

type CategoryScope struct {
	Name string
}

type SavedScope struct{}

type AllScope struct{}

func (s FeedScope) apply(f *ArticleFilter)     { f.FeedID = s.FeedID }
func (s CategoryScope) apply(f *ArticleFilter) { f.Category = s.Name }
func (SavedScope) apply(f *ArticleFilter)      { f.SavedOnly = true }
func (AllScope) apply(*ArticleFilter)          {}

// FilterFor builds the store filter for a view. A nil scope behaves as AllScope.
func FilterFor(scope Scope, unreadOnly bool, searchTerm string, limit int) ArticleFilter {
	f := ArticleFilter{
		UnreadOnly: unreadOnly,
		SearchTerm: searchTerm,
		Limit:      limit,
	}

	if scope != nil {
		scope.apply(&f)
	}

	return f
}
