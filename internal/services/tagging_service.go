package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"

	"signage-service/internal/config"
	"signage-service/internal/models"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	maxTags              = 8
	defaultSuggestLength = 5
	defaultItemDuration  = 10
)

// TaggingService labels media and drafts playlists. With an API key it asks an
// OpenAI compatible chat completions endpoint; otherwise, or when the remote
// call fails, it falls back to deterministic heuristics.
type TaggingService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	breaker    *gobreaker.CircuitBreaker[string]
}

func NewTaggingService(cfg config.AIConfig) *TaggingService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TaggingService{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "ai-tagging",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (s *TaggingService) remoteEnabled() bool {
	return s.apiKey != "" && s.baseURL != ""
}

// TagMedia returns up to maxTags lowercase tags for an asset. It never fails;
// remote errors degrade to the filename heuristic.
func (s *TaggingService) TagMedia(ctx context.Context, name, contentType string) ([]string, error) {
	if s.remoteEnabled() {
		prompt := fmt.Sprintf(
			"Suggest up to %d short lowercase tags for a digital signage asset named %q with content type %q. "+
				`Reply with JSON {"tags":[...]}.`, maxTags, name, contentType)
		content, err := s.complete(ctx, prompt)
		if err == nil {
			var out struct {
				Tags []string `json:"tags"`
			}
			if err = json.Unmarshal([]byte(content), &out); err == nil && len(out.Tags) > 0 {
				return normalizeTags(out.Tags), nil
			}
		}
		slog.Warn("Remote tagging failed, using fallback", "name", name, "error", err)
	}
	return fallbackTags(name, contentType), nil
}

// SuggestPlaylist drafts an ordered playlist from the media library that
// matches prompt.
func (s *TaggingService) SuggestPlaylist(ctx context.Context, prompt string, library []models.Media, maxItems int) (*models.PlaylistSuggestion, error) {
	if maxItems <= 0 {
		maxItems = defaultSuggestLength
	}
	if len(library) == 0 {
		return &models.PlaylistSuggestion{Name: suggestionName(prompt), Items: []models.PlaylistItemInput{}}, nil
	}

	if s.remoteEnabled() {
		suggestion, err := s.remoteSuggest(ctx, prompt, library, maxItems)
		if err == nil {
			return suggestion, nil
		}
		slog.Warn("Remote playlist suggestion failed, using fallback", "error", err)
	}
	return fallbackSuggestion(prompt, library, maxItems), nil
}

func (s *TaggingService) remoteSuggest(ctx context.Context, prompt string, library []models.Media, maxItems int) (*models.PlaylistSuggestion, error) {
	type entry struct {
		ID   uint     `json:"id"`
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	catalog := make([]entry, 0, len(library))
	known := make(map[uint]bool, len(library))
	for _, m := range library {
		catalog = append(catalog, entry{ID: m.ID, Name: m.Name, Tags: m.Tags})
		known[m.ID] = true
	}
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	content, err := s.complete(ctx, fmt.Sprintf(
		"Build a digital signage playlist for: %q. Pick at most %d items from this catalog: %s. "+
			`Reply with JSON {"name":string,"items":[{"mediaId":number,"durationSeconds":number}]}.`,
		prompt, maxItems, catalogJSON))
	if err != nil {
		return nil, err
	}

	var out models.PlaylistSuggestion
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}

	items := make([]models.PlaylistItemInput, 0, len(out.Items))
	for _, it := range out.Items {
		if !known[it.MediaID] || len(items) == maxItems {
			continue
		}
		if it.DurationSeconds <= 0 {
			it.DurationSeconds = defaultItemDuration
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("suggestion referenced no known media")
	}
	if out.Name == "" {
		out.Name = suggestionName(prompt)
	}
	out.Items = items
	return &out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends a single-turn chat completion through the circuit breaker and
// returns the assistant message content.
func (s *TaggingService) complete(ctx context.Context, prompt string) (string, error) {
	return s.breaker.Execute(func() (string, error) {
		body, err := json.Marshal(chatRequest{
			Model: s.model,
			Messages: []chatMessage{
				{Role: "system", Content: "You help operate a digital signage network. Answer with JSON only."},
				{Role: "user", Content: prompt},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
		})
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTaggingUnavailable, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", err
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: status %d", ErrTaggingUnavailable, resp.StatusCode)
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("decode completion: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("%w: empty completion", ErrTaggingUnavailable)
		}
		return parsed.Choices[0].Message.Content, nil
	})
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "final": true,
	"copy": true, "new": true, "img": true, "vid": true,
}

// fallbackTags derives tags from the media kind and the words of the file name.
func fallbackTags(name, contentType string) []string {
	var tags []string
	if kind, _, ok := strings.Cut(contentType, "/"); ok && kind != "" {
		tags = append(tags, strings.ToLower(kind))
	}

	base := strings.TrimSuffix(name, path.Ext(name))
	words := strings.FieldsFunc(strings.ToLower(base), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) < 3 || stopWords[w] || isNumeric(w) {
			continue
		}
		tags = append(tags, w)
	}
	return normalizeTags(tags)
}

func normalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// fallbackSuggestion ranks media by how many prompt words hit their tags or
// name, breaking ties by name. Media with no hits are used only when nothing
// matches at all.
func fallbackSuggestion(prompt string, library []models.Media, maxItems int) *models.PlaylistSuggestion {
	words := fallbackTags(prompt, "")

	type scored struct {
		media models.Media
		score int
	}
	ranked := make([]scored, 0, len(library))
	for _, m := range library {
		haystack := make(map[string]bool)
		for _, t := range m.Tags {
			haystack[strings.ToLower(t)] = true
		}
		for _, t := range fallbackTags(m.Name, "") {
			haystack[t] = true
		}
		score := 0
		for _, w := range words {
			if haystack[w] {
				score++
			}
		}
		ranked = append(ranked, scored{media: m, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].media.Name < ranked[j].media.Name
	})

	anyMatch := len(ranked) > 0 && ranked[0].score > 0
	items := make([]models.PlaylistItemInput, 0, maxItems)
	for _, r := range ranked {
		if len(items) == maxItems || (anyMatch && r.score == 0) {
			break
		}
		items = append(items, models.PlaylistItemInput{MediaID: r.media.ID, DurationSeconds: defaultItemDuration})
	}
	return &models.PlaylistSuggestion{Name: suggestionName(prompt), Items: items}
}

func suggestionName(prompt string) string {
	name := strings.TrimSpace(prompt)
	if r := []rune(name); len(r) > 60 {
		name = strings.TrimSpace(string(r[:60]))
	}
	if name == "" {
		return "Suggested playlist"
	}
	return name
}
