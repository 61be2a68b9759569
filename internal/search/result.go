package search

import "fmt"

// Kind tags which outcome a Result holds.
type Kind string

const (
	KindExactMatch     Kind = "exact_match"
	KindPartialMatches Kind = "partial_matches"
	KindNotFound       Kind = "not_found"
	KindShowAll        Kind = "show_all"
)

// Result is the single output of Resolve. Only the fields of its Kind are
// set: Title and Content for an exact match, Candidates for partial matches
// and show-all, Query for everything but show-all.
type Result struct {
	Kind       Kind     `json:"kind"`
	Query      string   `json:"query,omitempty"`
	Title      string   `json:"title,omitempty"`
	Content    string   `json:"content,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func ExactMatch(title, content string) Result {
	return Result{Kind: KindExactMatch, Query: title, Title: title, Content: content}
}

func PartialMatches(query string, candidates []string) Result {
	return Result{Kind: KindPartialMatches, Query: query, Candidates: candidates}
}

func NotFound(query string) Result {
	return Result{Kind: KindNotFound, Query: query}
}

// ShowAllEntries is returned for an empty query; titles is the full index.
func ShowAllEntries(titles []string) Result {
	return Result{Kind: KindShowAll, Candidates: titles}
}

func (r Result) String() string {
	switch r.Kind {
	case KindExactMatch:
		return fmt.Sprintf("exact(%s)", r.Title)
	case KindPartialMatches:
		return fmt.Sprintf("partial(%s: %d)", r.Query, len(r.Candidates))
	case KindNotFound:
		return fmt.Sprintf("not_found(%s)", r.Query)
	case KindShowAll:
		return fmt.Sprintf("show_all(%d)", len(r.Candidates))
	default:
		return string(r.Kind)
	}
}
