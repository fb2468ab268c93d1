package composer

import (
	"fmt"
	"strings"

	"trendpost/internal/domain/entity"
)

// digestSystemPrompt sets the voice for digest posts.
const digestSystemPrompt = "You are a tech-savvy developer who shares interesting finds on X. " +
	"You sound authentic, not corporate. Short, punchy tweets."

// commentSystemPrompt sets the voice for single-topic reaction posts.
const commentSystemPrompt = "You're a developer commenting on tech trends. Be authentic and opinionated."

const digestPromptTemplate = `You are a senior developer who has seen it all. You are tired of the hype cycle.
You are posting on X (Twitter).

CONTEXT (What's trending):
%s

%s
TASK:
Write ONE tweet about something from the context.

PERSONA RULES:
1. Speak in lowercase. It's more authentic.
2. Be skeptical but open-minded. Prefer "huh, interesting" over "wow amazing".
3. NO corporate buzzwords (unleash, revolutionize, game-changer).
4. NO "Exciting news!" start.
5. Max 1 emoji (or 0). 💀 and 😭 are okay. 🚀 is BANNED.
6. Don't frame it as a news update. Frame it as "i just saw this and..."
7. Allow fragments. Imperfect grammar is real.

BAD EXAMPLES (Bot behavior):
- "Check out this amazing new AI tool! #AI #Tech" (Too eager)
- "The future of coding is here with GPT-5." (Too formal)
- "Exciting development in the world of Python!" (Marketing bot)

GOOD EXAMPLES (Human behavior):
- "wait, did openai just actually fix the reasoning bug? big if true"
- "everyone arguing about monorepos again. nature is healing."
- "tried the new cursor update. honestly? not bad."
- "i give this new framework 6 months before google kills it"

Output ONLY the tweet text. No quotes.`

const commentPromptTemplate = `You're a dev reading this trending news:

TOPIC: %s
FROM: %s
CONTEXT: %s

Write a quick, opinionated reaction tweet.
1. Be cynical, funny, or impressed. Just pick ONE vibe.
2. 280 chars max (but shorter is better, like < 140).
3. No boomer energy. No corporate speak.
4. lowercase looks more real.
5. If it's about AI, be skeptical or mind-blown.
6. If it's about a JS framework, be exhausted.

Examples:
- "obsidian really is just markdown files and good vibes huh"
- "copilot just wrote my entire unit test suite. i might actually cry."
- "another js framework? daring today aren't we"

Output JUST the tweet text:`

// buildDigestPrompt assembles the digest prompt from the trending bundle
// and the recent-post anti-repetition context.
func buildDigestPrompt(bundle entity.TopicBundle, recentPosts []string) string {
	return fmt.Sprintf(digestPromptTemplate, buildBundleContext(bundle), buildRecentContext(recentPosts))
}

// buildBundleContext renders the bundle as the prompt's trending context.
// An empty bundle degrades to a generic line so the composer still has
// something to react to.
func buildBundleContext(bundle entity.TopicBundle) string {
	var parts []string

	if len(bundle.Discussions) > 0 {
		parts = append(parts, "🔥 HOT ON HACKER NEWS:")
		for _, d := range capTopics(bundle.Discussions, 3) {
			parts = append(parts, fmt.Sprintf("  • %q (%d upvotes, %d comments)", d.Title, d.Score, d.Comments))
		}
	}

	if len(bundle.Repos) > 0 {
		parts = append(parts, "\n⭐ TRENDING ON GITHUB:")
		for _, r := range capTopics(bundle.Repos, 2) {
			parts = append(parts, fmt.Sprintf("  • %s (%d stars)", r.Title, r.Score))
		}
	}

	if len(bundle.Articles) > 0 {
		parts = append(parts, "\n📰 LATEST NEWS:")
		for _, a := range capTopics(bundle.Articles, 2) {
			parts = append(parts, fmt.Sprintf("  • %s", a.Title))
		}
	}

	if len(parts) == 0 {
		parts = []string{"AI and coding tools continue to evolve rapidly"}
	}

	return strings.Join(parts, "\n")
}

// buildRecentContext renders recent post previews as an avoid-list.
// Returns "" when there is nothing to avoid.
func buildRecentContext(recentPosts []string) string {
	if len(recentPosts) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("YOUR RECENT POSTS (avoid repeating these topics/angles):\n")
	for i, post := range recentPosts {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, post)
	}
	return b.String()
}

// buildCommentPrompt assembles the single-topic reaction prompt.
func buildCommentPrompt(topic entity.Topic) string {
	source := topic.Source
	if source == "" {
		source = "dev community"
	}

	var parts []string
	if topic.Score > 0 {
		switch topic.Source {
		case "GitHub Trending":
			parts = append(parts, fmt.Sprintf("%d GitHub stars", topic.Score))
		default:
			parts = append(parts, fmt.Sprintf("%d upvotes, %d comments", topic.Score, topic.Comments))
		}
	}
	if topic.Summary != "" {
		parts = append(parts, topic.Summary)
	}

	context := "trending now"
	if len(parts) > 0 {
		context = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(commentPromptTemplate, topic.Title, source, context)
}

func capTopics(topics []entity.Topic, n int) []entity.Topic {
	if len(topics) > n {
		return topics[:n]
	}
	return topics
}
