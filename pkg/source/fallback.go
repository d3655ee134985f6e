package source

import (
	"fmt"
	"net/url"
	"time"
)

// Hand-authored substitute data, returned whenever a live call fails or the
// required credentials are unset. Keeps the pipeline and the dashboard
// populated through upstream outages.

func redditGlobalFallback() []Trend {
	now := time.Now().UTC()
	entries := []struct {
		key, title, topic, author string
		score                     int
	}{
		{"fb-r1", "Open source maintainers share their burnout stories", "programming", "dev_voices", 41200},
		{"fb-r2", "NASA confirms water ice deposits near lunar south pole", "science", "spacewatcher", 38700},
		{"fb-r3", "New EU regulation targets dark patterns in app design", "technology", "policy_nerd", 29500},
		{"fb-r4", "Researchers demo battery that charges in under five minutes", "science", "energyfan", 27300},
		{"fb-r5", "The rise and fall of the microservices hype cycle", "programming", "archi_tect", 24800},
		{"fb-r6", "Major browser vendors agree on new privacy baseline", "technology", "webstandards", 21100},
		{"fb-r7", "Citizen scientists map light pollution across continents", "science", "nightskies", 18400},
		{"fb-r8", "What a 40-year-old COBOL system taught me about software", "programming", "legacy_dev", 16900},
	}

	trends := make([]Trend, 0, len(entries))
	for _, e := range entries {
		trends = append(trends, Trend{
			Source:     SourceReddit,
			NaturalKey: e.key,
			Title:      e.title,
			URL:        "https://reddit.com/r/" + e.topic,
			Score:      e.score,
			Topic:      e.topic,
			Author:     e.author,
			FromGlobal: true,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return trends
}

func redditTopicFallback(topic string) []Trend {
	now := time.Now().UTC()
	titles := []string{
		fmt.Sprintf("Weekly discussion thread: what's new in %s?", topic),
		fmt.Sprintf("Beginner resources for getting into %s", topic),
		fmt.Sprintf("The most upvoted %s stories this month", topic),
	}

	trends := make([]Trend, 0, len(titles))
	for i, title := range titles {
		trends = append(trends, Trend{
			Source:     SourceReddit,
			NaturalKey: fmt.Sprintf("fb-%s-%d", topic, i+1),
			Title:      title,
			URL:        "https://reddit.com/r/" + url.PathEscape(topic),
			Score:      (3 - i) * 1200,
			Topic:      topic,
			Author:     "reddit",
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return trends
}

func twitterFallbackPool() []Trend {
	now := time.Now().UTC()
	entries := []struct {
		title, description string
		score              int
	}{
		{"#AIRevolution", "Artificial Intelligence transforming industries worldwide", 125000},
		{"#TechInnovation", "Latest breakthroughs in technology and innovation", 89000},
		{"#WebDevelopment", "Modern web development trends and best practices", 67000},
		{"#DataScience", "Data science and machine learning insights", 54000},
		{"#CyberSecurity", "Latest updates in the cybersecurity world", 62000},
		{"#CloudComputing", "Trends and best practices in cloud computing", 49000},
		{"#MachineLearning", "Machine learning algorithms and tools", 71000},
		{"#QuantumComputing", "Advancements in quantum computing", 46000},
		{"#DevOps", "CI/CD and DevOps automation tools", 53000},
		{"#OpenSource", "Top open source projects and communities", 58000},
		{"#RemoteWork", "Work-from-home trends and tools", 49500},
		{"#TechNews", "Latest tech news from around the world", 74000},
	}

	trends := make([]Trend, 0, len(entries))
	for _, e := range entries {
		trends = append(trends, Trend{
			Source:      SourceTwitter,
			Title:       e.title,
			Description: e.description,
			URL:         "https://twitter.com/search?q=" + url.QueryEscape(e.title),
			Score:       e.score,
			Author:      "twitter",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return trends
}

func googleTrendsFallback() []Trend {
	now := time.Now().UTC()
	entries := []struct {
		title, description string
		score              int
	}{
		{"ChatGPT alternatives", "People searching for AI chatbot alternatives", 85000},
		{"React vs Vue", "Comparison between popular JavaScript frameworks", 67000},
		{"Machine learning courses", "Online courses for machine learning and AI", 54000},
		{"Blockchain technology", "Understanding blockchain and cryptocurrency", 43000},
		{"Cybersecurity best practices", "Protecting against cyber threats and attacks", 32000},
	}

	trends := make([]Trend, 0, len(entries))
	for _, e := range entries {
		trends = append(trends, Trend{
			Source:      SourceGoogleTrends,
			Title:       e.title,
			Description: e.description,
			URL:         "https://www.google.com/search?q=" + url.QueryEscape(e.title),
			Score:       e.score,
			Author:      "google",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return trends
}
