package model

import (
	"strings"
	"time"
)

// Commit represents a git commit of the tracked project
type Commit struct {
	SHA     string    `json:"sha"`
	Date    time.Time `json:"date"`    // author date
	Message string    `json:"message"` // first line of the commit message
	Author  string    `json:"author,omitempty"`
	URL     string    `json:"url,omitempty"`
}

// Subject returns the first line of a commit message
func Subject(message string) string {
	subject, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(subject)
}

// ProviderConfig is the provider-agnostic part of a commit source configuration
type ProviderConfig struct {
	BaseURL string
	Token   string
	Project string
	Branch  string
	Path    string
	Limit   int
}
