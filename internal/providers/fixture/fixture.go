package fixture

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/preston-bernstein/ranking-bot/internal/domain/leaderboard"
	"github.com/preston-bernstein/ranking-bot/internal/providers"
)

const sourceName = "fixture"

//go:embed default.yaml
var defaultFixture []byte

// File is the YAML layout of a fixture.
type File struct {
	Questions []leaderboard.Question `yaml:"questions"`
	Frames    []Frame                `yaml:"frames"`
}

// Frame is one poll's worth of data. NoEvent frames behave like a source with no round.
type Frame struct {
	NoEvent bool        `yaml:"noEvent"`
	Teams   []TeamScore `yaml:"teams"`
}

// TeamScore is a team row; list order is the source order.
type TeamScore struct {
	Name   string             `yaml:"name"`
	Scores map[string]float64 `yaml:"scores"`
}

// Provider replays fixture frames, one per fetch, then keeps returning the last one.
type Provider struct {
	mu     sync.Mutex
	file   File
	cursor int
	now    func() time.Time
}

// New returns a provider over the embedded demo round.
func New() *Provider {
	p, err := Parse(defaultFixture)
	if err != nil {
		panic(fmt.Sprintf("fixture: embedded default is invalid: %v", err))
	}
	return p
}

// Load reads a fixture file. An empty path selects the embedded default.
func Load(path string) (*Provider, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Provider, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("fixture: decode: %w", err)
	}
	if len(f.Frames) == 0 {
		return nil, errors.New("fixture: at least one frame is required")
	}
	return &Provider{file: f, now: time.Now}, nil
}

// Name identifies the source in logs and metrics.
func (p *Provider) Name() string {
	return sourceName
}

// FetchSnapshot returns the current frame and advances the cursor.
func (p *Provider) FetchSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	frame := p.file.Frames[p.cursor]
	if p.cursor < len(p.file.Frames)-1 {
		p.cursor++
	}
	p.mu.Unlock()

	if frame.NoEvent || len(frame.Teams) == 0 {
		return nil, &providers.FetchError{Source: sourceName, Endpoint: "frame", Err: providers.ErrNoEventRunning}
	}

	teams := make([]leaderboard.TeamInput, len(frame.Teams))
	for i, t := range frame.Teams {
		teams[i] = leaderboard.TeamInput{Name: t.Name, Scores: t.Scores}
	}
	return leaderboard.NewSnapshot(p.file.Questions, teams, p.now()), nil
}

// Reset rewinds to the first frame.
func (p *Provider) Reset() {
	p.mu.Lock()
	p.cursor = 0
	p.mu.Unlock()
}

// Frames reports how many frames the fixture holds.
func (p *Provider) Frames() int {
	return len(p.file.Frames)
}
