// Package intent holds the routing decision for a chat turn.
package intent

import "strings"

// Intent is the classified purpose of a chat turn.
type Intent string

// Known intents.
const (
	RecommendCollaborators Intent = "recommend_collaborators"
	RecommendProjects      Intent = "recommend_projects"
	SmallTalk              Intent = "small_talk"
)

// Parse maps a classifier label onto an Intent. Unknown labels become SmallTalk.
func Parse(s string) Intent {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case RecommendCollaborators, RecommendProjects, SmallTalk:
		return i
	default:
		return SmallTalk
	}
}

// Source tells which classifier produced a Decision.
type Source string

// Decision sources.
const (
	SourceClassifier Source = "classifier"
	SourceRules      Source = "rules"
)

// Decision is the router output.
type Decision struct {
	Intent Intent
	Query  string
	Tags   []string
	Source Source
}

// New builds a Decision, defaulting an empty query to latest and nil tags to an empty list.
func New(i Intent, query string, tags []string, latest string, src Source) Decision {
	if strings.TrimSpace(query) == "" {
		query = latest
	}
	if tags == nil {
		tags = []string{}
	}
	return Decision{Intent: i, Query: query, Tags: tags, Source: src}
}

// Classification is the raw output of an intent classifier. Fields it omitted stay zero.
type Classification struct {
	Intent string
	Query  string
	Tags   []string
}
