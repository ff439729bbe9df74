package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/inference-gateway/instruct-agent/logger"
)

// ErrProfileNotFound is returned when no profile can be resolved for an id
var ErrProfileNotFound = errors.New("tool profile not found")

// Profile is a named system-prompt configuration
type Profile struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	SystemPromptURL      string  `json:"systemPromptUrl,omitempty"`
	FallbackSystemPrompt *string `json:"fallbackSystemPrompt,omitempty"`
}

// Service resolves tool profiles and their system prompts
//
//go:generate mockgen -source=profiles.go -destination=../mocks/profiles.go -package=mocks
type Service interface {
	List(ctx context.Context, refresh bool) ([]Profile, error)
	Get(ctx context.Context, id string) (*Profile, error)
	SystemPrompt(ctx context.Context, profile Profile, refresh bool) (string, error)
	ClearCache()
}

// ServiceConfig configures the gist backed profile service
type ServiceConfig struct {
	GistID string
	APIURL string
	Token  string
	TTL    time.Duration
}

type gistFile struct {
	Filename  string `json:"filename"`
	Type      string `json:"type"`
	RawURL    string `json:"raw_url"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

type gist struct {
	Files map[string]*gistFile `json:"files"`
}

type cachedProfiles struct {
	profiles  []Profile
	expiresAt time.Time
}

type gistService struct {
	cfg        ServiceConfig
	httpClient *http.Client
	prompts    PromptLoader
	logger     logger.Logger
	now        func() time.Time

	mu    sync.Mutex
	cache *cachedProfiles
}

// NewService creates a profile service reading the files of a GitHub gist.
// With a token the gist API is called through an oauth2 static token client.
func NewService(cfg ServiceConfig, prompts PromptLoader, log logger.Logger) Service {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	return &gistService{
		cfg:        cfg,
		httpClient: httpClient,
		prompts:    prompts,
		logger:     log,
		now:        time.Now,
	}
}

func (s *gistService) List(ctx context.Context, refresh bool) ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !refresh && s.cache != nil && s.cache.expiresAt.After(s.now()) {
		return s.cache.profiles, nil
	}

	profiles, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.cache = &cachedProfiles{
		profiles:  profiles,
		expiresAt: s.now().Add(s.cfg.TTL),
	}
	return profiles, nil
}

// Get returns the profile with the given id, or the first profile when the
// id is unknown.
func (s *gistService) Get(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, ErrProfileNotFound
	}

	profiles, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}

	s.logger.Debug("Profiles: unknown profile, using first", "id", id, "fallback", profiles[0].ID)
	return &profiles[0], nil
}

// SystemPrompt loads the prompt a profile points at, falling back to the
// inline gist content when the remote prompt is empty.
func (s *gistService) SystemPrompt(ctx context.Context, profile Profile, refresh bool) (string, error) {
	prompt := ""
	if profile.SystemPromptURL != "" {
		var err error
		prompt, err = s.prompts.Load(ctx, profile.SystemPromptURL, refresh)
		if err != nil {
			return "", err
		}
	}

	if prompt == "" && profile.FallbackSystemPrompt != nil {
		prompt = *profile.FallbackSystemPrompt
	}
	return prompt, nil
}

func (s *gistService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

func (s *gistService) fetch(ctx context.Context) ([]Profile, error) {
	if s.cfg.GistID == "" {
		return nil, errors.New("tools gist id is not configured")
	}

	url := fmt.Sprintf("%s/gists/%s", strings.TrimSuffix(s.cfg.APIURL, "/"), s.cfg.GistID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gist request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "instruct-agent")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tools gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch tools gist: %s", resp.Status)
	}

	var g gist
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode tools gist: %w", err)
	}

	profiles := make([]Profile, 0, len(g.Files))
	for _, file := range g.Files {
		if file == nil {
			continue
		}
		if file.Type != "" && !strings.HasPrefix(file.Type, "text") {
			continue
		}

		id := normalizeID(file.Filename)
		name := file.Filename
		if name == "" {
			name = id
		}

		profile := Profile{
			ID:              id,
			Name:            name,
			SystemPromptURL: file.RawURL,
		}
		if !file.Truncated {
			fallback := strings.TrimSpace(file.Content)
			profile.FallbackSystemPrompt = &fallback
		}
		profiles = append(profiles, profile)
	}

	sortByName(profiles)

	s.logger.Debug("Profiles: loaded tool profiles", "gist", s.cfg.GistID, "count", len(profiles))
	return profiles, nil
}

var whitespace = regexp.MustCompile(`\s+`)

func normalizeID(filename string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(filename)), "-")
}

func sortByName(profiles []Profile) {
	c := collate.New(language.English)
	sort.SliceStable(profiles, func(i, j int) bool {
		return c.CompareString(profiles[i].Name, profiles[j].Name) < 0
	})
}
