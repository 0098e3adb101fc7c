package core

import (
	"github.com/git-pkgs/paxd/client"
)

// Type aliases so source formats and the resolver share the client types.
type (
	RateLimiter = client.RateLimiter
	Client      = client.Client
	Option      = client.Option
	URLBuilder  = client.URLBuilder
	RepoURLs    = client.RepoURLs
	HTTPError   = client.HTTPError
)

// Function aliases.
var (
	DefaultClient  = client.DefaultClient
	NewClient      = client.NewClient
	NewRepoURLs    = client.NewRepoURLs
	WithTimeout    = client.WithTimeout
	WithMaxRetries = client.WithMaxRetries
)
