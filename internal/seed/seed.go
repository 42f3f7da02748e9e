// Package seed fills an empty store with a deterministic demo data set.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// DefaultCandidates is the number of candidates seeded by default.
const DefaultCandidates = 1000

const (
	defaultSeed    = 42
	applyWindow    = 90 * 24 * time.Hour
	stageStepRange = 6 * 24 * time.Hour
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Store is the subset of the store seeding writes through.
type Store interface {
	Create(ctx context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, c model.Collection, id int64, patch json.RawMessage) (json.RawMessage, error)
}

// Counts reports how many records of each kind were created.
type Counts struct {
	Jobs         int
	Candidates   int
	Applications int
	Assessments  int
}

type fixtures struct {
	Jobs []struct {
		Title      string   `yaml:"title"`
		Department string   `yaml:"department"`
		Tags       []string `yaml:"tags"`
	} `yaml:"jobs"`
	Locations   []string          `yaml:"locations"`
	Statuses    []model.JobStatus `yaml:"statuses"`
	FirstNames  []string          `yaml:"first_names"`
	LastNames   []string          `yaml:"last_names"`
	Experience  []string          `yaml:"experience"`
	Assessments []assessmentSeed  `yaml:"assessments"`
}

type assessmentSeed struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Job         int            `yaml:"job"`
	Questions   []questionSeed `yaml:"questions"`
}

type questionSeed struct {
	ID            string   `yaml:"id"`
	Type          string   `yaml:"type"`
	Title         string   `yaml:"title"`
	Required      bool     `yaml:"required"`
	Options       []string `yaml:"options"`
	CorrectAnswer any      `yaml:"correct_answer"`
	MinValue      *float64 `yaml:"min_value"`
	MaxValue      *float64 `yaml:"max_value"`
	MaxLength     int      `yaml:"max_length"`
}

func (q questionSeed) model() model.Question {
	return model.Question{
		ID:            q.ID,
		Type:          model.QuestionType(q.Type),
		Title:         q.Title,
		Required:      q.Required,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		MinValue:      q.MinValue,
		MaxValue:      q.MaxValue,
		MaxLength:     q.MaxLength,
	}
}

type settings struct {
	candidates int
	seed       int64
	now        func() time.Time
}

// Option configures Run.
type Option func(*settings)

// WithCandidates sets how many candidates to create.
func WithCandidates(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.candidates = n
		}
	}
}

// WithRandomSeed sets the generator seed.
func WithRandomSeed(seed int64) Option {
	return func(s *settings) { s.seed = seed }
}

// WithClock sets the reference time for generated dates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func load() (fixtures, error) {
	var f fixtures
	if err := yaml.Unmarshal(fixturesYAML, &f); err != nil {
		return f, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Jobs) == 0 || len(f.FirstNames) == 0 || len(f.LastNames) == 0 || len(f.Locations) == 0 {
		return f, fmt.Errorf("parse fixtures: incomplete data set")
	}
	return f, nil
}

// Run writes jobs, candidates with one application each, and assessments.
// The same options always produce the same data set.
func Run(ctx context.Context, store Store, opts ...Option) (Counts, error) {
	s := settings{candidates: DefaultCandidates, seed: defaultSeed, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	f, err := load()
	if err != nil {
		return Counts{}, err
	}
	g := &generator{
		store: store,
		f:     f,
		rng:   rand.New(rand.NewSource(s.seed)), //nolint:gosec // demo data
		now:   s.now().UTC(),
	}

	var counts Counts
	jobIDs, err := g.jobs(ctx)
	if err != nil {
		return counts, err
	}
	counts.Jobs = len(jobIDs)

	for i := 0; i < s.candidates; i++ {
		if err := g.candidate(ctx, i, jobIDs); err != nil {
			return counts, err
		}
		counts.Candidates++
		counts.Applications++
	}

	for _, a := range f.Assessments {
		if err := g.assessment(ctx, a, jobIDs); err != nil {
			return counts, err
		}
		counts.Assessments++
	}
	return counts, nil
}

type generator struct {
	store Store
	f     fixtures
	rng   *rand.Rand
	now   time.Time
}

func (g *generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func (g *generator) jobs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(g.f.Jobs))
	for i, j := range g.f.Jobs {
		status := model.JobActive
		if len(g.f.Statuses) > 0 {
			status = g.f.Statuses[g.rng.Intn(len(g.f.Statuses))]
		}
		order := i + 1
		doc, err := json.Marshal(model.Job{
			Title:       j.Title,
			Department:  j.Department,
			Location:    g.pick(g.f.Locations),
			Description: fmt.Sprintf("Join our %s team as a %s.", j.Department, j.Title),
			Status:      status,
			Tags:        j.Tags,
			Order:       &order,
		})
		if err != nil {
			return nil, fmt.Errorf("encode job: %w", err)
		}
		created, err := g.create(ctx, model.Jobs, doc)
		if err != nil {
			return nil, err
		}
		id := idOf(created)
		slug := `{"slug":` + strconv.Quote(model.JobSlug(j.Title, id)) + `}`
		if _, err := g.store.Update(ctx, model.Jobs, id, json.RawMessage(slug)); err != nil {
			return nil, fmt.Errorf("seed job slug: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// path returns the stages a record walked through to reach its current one.
func (g *generator) path() []model.Stage {
	forward := []model.Stage{model.StageApplied, model.StageScreen, model.StageTest, model.StageOffer, model.StageHired}
	n := 1 + g.rng.Intn(len(forward))
	out := append([]model.Stage(nil), forward[:n]...)
	if n < len(forward) && g.rng.Intn(4) == 0 {
		out = append(out, model.StageRejected)
	}
	return out
}

func (g *generator) history(path []model.Stage) (time.Time, []model.StageEntry) {
	at := g.now.Add(-time.Duration(g.rng.Int63n(int64(applyWindow))))
	applied := at
	entries := make([]model.StageEntry, len(path))
	for i, st := range path {
		if i > 0 {
			at = at.Add(time.Duration(g.rng.Int63n(int64(stageStepRange))))
		}
		entries[i] = model.StageEntry{Stage: st, Date: at}
	}
	return applied, entries
}

func (g *generator) candidate(ctx context.Context, i int, jobIDs []int64) error {
	first, last := g.pick(g.f.FirstNames), g.pick(g.f.LastNames)
	jobIdx := g.rng.Intn(len(jobIDs))
	path := g.path()
	applied, entries := g.history(path)
	stage := path[len(path)-1]

	doc, err := json.Marshal(model.Candidate{
		Name:         first + " " + last,
		Email:        fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
		Phone:        fmt.Sprintf("+1-555-%04d", g.rng.Intn(10000)),
		Position:     g.f.Jobs[jobIdx].Title,
		Stage:        stage,
		Location:     g.pick(g.f.Locations),
		Experience:   g.pick(g.f.Experience),
		StageHistory: entries,
	})
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	created, err := g.create(ctx, model.Candidates, doc)
	if err != nil {
		return err
	}

	app, err := json.Marshal(model.Application{
		JobID:        jobIDs[jobIdx],
		CandidateID:  idOf(created),
		Stage:        stage,
		AppliedAt:    applied,
		StageHistory: entries,
	})
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	_, err = g.create(ctx, model.Applications, app)
	return err
}

func (g *generator) assessment(ctx context.Context, a assessmentSeed, jobIDs []int64) error {
	a2 := model.Assessment{Title: a.Title, Description: a.Description}
	if a.Job >= 1 && a.Job <= len(jobIDs) {
		id := jobIDs[a.Job-1]
		a2.JobID = &id
	}
	for _, q := range a.Questions {
		a2.Questions = append(a2.Questions, q.model())
	}
	doc, err := json.Marshal(a2)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	_, err = g.create(ctx, model.Assessments, doc)
	return err
}

// create stores doc. The zero id and timestamps the model types marshal
// are replaced by the store.
func (g *generator) create(ctx context.Context, c model.Collection, doc json.RawMessage) (json.RawMessage, error) {
	out, err := g.store.Create(ctx, c, doc)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", c, err)
	}
	return out, nil
}

func idOf(doc json.RawMessage) int64 {
	var m struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(doc, &m)
	return m.ID
}
