package content

import "context"

// Post is a single content item returned by the fetcher. Only the
// representative link is relayed to the chat, never media bytes.
type Post struct {
	ID         string `json:"id,omitempty"`
	DisplayURL string `json:"display_url"`
}

// IFetcher is the content-fetch collaborator. Unknown targets are
// signaled with pkgError.NotFoundError; upstream authentication is the
// implementation's concern.
type IFetcher interface {
	Fetch(ctx context.Context, target string, count int) ([]Post, error)
}
