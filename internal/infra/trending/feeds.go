package trending

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FeedSource is one configured RSS/Atom source.
type FeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// feedFile is the on-disk shape of the feed configuration.
type feedFile struct {
	Feeds []FeedSource `yaml:"feeds"`
}

// DefaultFeeds is the built-in RSS source list, used when no feed
// configuration file is provided.
func DefaultFeeds() []FeedSource {
	return []FeedSource{
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/", Category: "AI"},
		{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/", Category: "AI"},
		{Name: "The Verge Tech", URL: "https://www.theverge.com/rss/tech/index.xml", Category: "Tech"},
		{Name: "Dev.to AI", URL: "https://dev.to/feed/tag/ai", Category: "Development"},
		{Name: "Hacker News Best", URL: "https://hnrss.org/best", Category: "Tech"},
	}
}

// LoadFeeds reads a YAML feed configuration from path. An empty path
// returns the built-in defaults. A file that exists but parses to zero
// feeds is rejected rather than silently producing an article-less bot.
func LoadFeeds(path string) ([]FeedSource, error) {
	if path == "" {
		return DefaultFeeds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed config: %w", err)
	}

	var f feedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feed config: %w", err)
	}
	if len(f.Feeds) == 0 {
		return nil, fmt.Errorf("feed config %s contains no feeds", path)
	}

	for i, feed := range f.Feeds {
		if feed.Name == "" || feed.URL == "" {
			return nil, fmt.Errorf("feed config %s: entry %d is missing name or url", path, i)
		}
	}

	return f.Feeds, nil
}
