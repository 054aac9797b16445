package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	byGHID map[int64]string

	upsertErr error
	getErr    error
	debitErr  error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*model.User), byGHID: make(map[int64]string)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; ok {
		return apperror.Conflict("user", user.ID)
	}
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	if user.GitHubID != 0 {
		f.byGHID[user.GitHubID] = user.ID
	}
	return nil
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	if id, ok := f.byGHID[user.GitHubID]; ok {
		existing := f.users[id]
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()
	return f.CreateUser(ctx, user)
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) DebitCredit(ctx context.Context, id string) (bool, error) {
	if f.debitErr != nil {
		return false, f.debitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.Credits < 1 {
		return false, nil
	}
	u.Credits--
	return true, nil
}

func (f *fakeUserRepo) AddCredits(ctx context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Credits += delta
	return nil
}

func (f *fakeUserRepo) credits(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].Credits
}

// fakeGameRepo is an in-memory repository.GameRepository and RatingRepository.
type fakeGameRepo struct {
	mu      sync.Mutex
	games   map[string]*model.GameIdea
	ratings map[string]map[string]int // game -> user -> score
	nextID  int

	createErr error
	setURLErr error
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]*model.GameIdea), ratings: make(map[string]map[string]int)}
}

func (f *fakeGameRepo) CreateGame(ctx context.Context, game *model.GameIdea) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	game.ID = fmt.Sprintf("game-%d", f.nextID)
	game.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Millisecond)
	for i := range game.SimilarGames {
		game.SimilarGames[i].ID = fmt.Sprintf("%s-similar-%d", game.ID, i)
		game.SimilarGames[i].GameID = game.ID
	}
	copied := *game
	f.games[game.ID] = &copied
	return nil
}

func (f *fakeGameRepo) SetGameImageURL(ctx context.Context, id, url string) error {
	if f.setURLErr != nil {
		return f.setURLErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return apperror.NotFound("game idea", id)
	}
	g.ImageURL = url
	return nil
}

func (f *fakeGameRepo) GetGame(ctx context.Context, id string) (*model.GameIdea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, apperror.NotFound("game idea", id)
	}
	copied := *g
	copied.Image = nil
	return &copied, nil
}

func (f *fakeGameRepo) list(filter func(*model.GameIdea) bool, opts repository.ListOptions) []model.GameIdea {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.GameIdea
	for _, g := range f.games {
		if filter(g) {
			copied := *g
			copied.Image = nil
			all = append(all, copied)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if opts.Offset >= len(all) {
		return []model.GameIdea{}
	}
	end := min(opts.Offset+opts.Limit, len(all))
	return all[opts.Offset:end]
}

func (f *fakeGameRepo) ListGames(ctx context.Context, opts repository.ListOptions) ([]model.GameIdea, error) {
	return f.list(func(*model.GameIdea) bool { return true }, opts), nil
}

func (f *fakeGameRepo) ListGamesByGenre(ctx context.Context, genre string, opts repository.ListOptions) ([]model.GameIdea, error) {
	genre = strings.ToLower(genre)
	return f.list(func(g *model.GameIdea) bool {
		return strings.Contains(strings.ToLower(g.Genre), genre)
	}, opts), nil
}

func (f *fakeGameRepo) CountGames(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.games)), nil
}

func (f *fakeGameRepo) GetGameImage(ctx context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok || len(g.Image) == 0 {
		return nil, apperror.NotFound("game idea", id)
	}
	return g.Image, nil
}

func (f *fakeGameRepo) DeleteGame(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[id]; !ok {
		return apperror.NotFound("game idea", id)
	}
	delete(f.games, id)
	delete(f.ratings, id)
	return nil
}

func (f *fakeGameRepo) RatingPercentage(ctx context.Context, gameID string, maxScore int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	scores := f.ratings[gameID]
	if len(scores) == 0 {
		return 0, nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) * 100 / float64(len(scores)*maxScore), nil
}

func (f *fakeGameRepo) UpsertRating(ctx context.Context, r *model.GameRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ratings[r.GameID] == nil {
		f.ratings[r.GameID] = make(map[string]int)
	}
	f.ratings[r.GameID][r.UserID] = r.Score
	return nil
}

func (f *fakeGameRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.games)
}

// fakeAI answers chat prompts by kind and records how it was called.
type fakeAI struct {
	mu sync.Mutex

	randomReply  string
	similarReply string
	image        []byte

	chatErr    error
	similarErr error
	imageErr   error

	// imageDelay blocks GenerateImage until the context ends or the delay passes.
	imageDelay time.Duration

	temperatures []float64
	imageCalls   int
	imageCtxErr  error
}

func (f *fakeAI) CompleteChat(ctx context.Context, p string, temperature float64) (string, error) {
	f.mu.Lock()
	f.temperatures = append(f.temperatures, temperature)
	f.mu.Unlock()

	if strings.Contains(p, "similar games") {
		if f.similarErr != nil {
			return "", f.similarErr
		}
		return f.similarReply, nil
	}
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.randomReply, nil
}

func (f *fakeAI) GenerateImage(ctx context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()

	if f.imageDelay > 0 {
		select {
		case <-time.After(f.imageDelay):
		case <-ctx.Done():
			f.mu.Lock()
			f.imageCtxErr = ctx.Err()
			f.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return f.image, nil
}

type fakeCovers struct {
	url string
	err error

	contentType string
	uploads     int
}

func (f *fakeCovers) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.uploads++
	f.contentType = contentType
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}
