// Package grid is the pixel grid provider: pixels from a YAML file with
// purchases made through the API layered on top.
package grid

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
)

// DefaultSize is a 100x100 grid.
const DefaultSize = 100 * 100

// Purchase is a request to buy a pixel and link it to a channel.
type Purchase struct {
	Channel      string   `json:"channel"`
	TelegramLink string   `json:"telegramLink"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	Price        float64  `json:"price"`
}

// Grid implements ports.GridProvider.
type Grid struct {
	loader  *Loader
	storage ports.Storage
	size    int
	log     logger.Logger
	now     func() time.Time

	mu         sync.RWMutex
	base       map[int]domain.Pixel
	purchases  map[int]domain.Pixel
	focus      map[string]int
	onPurchase func()
}

func New(filePath string, size int, storage ports.Storage, log logger.Logger) *Grid {
	if size <= 0 {
		size = DefaultSize
	}
	return &Grid{
		loader:    NewLoader(filePath, size),
		storage:   storage,
		size:      size,
		log:       log,
		now:       time.Now,
		base:      map[int]domain.Pixel{},
		purchases: map[int]domain.Pixel{},
		focus:     map[string]int{},
	}
}

// OnPurchase registers fn to run after every successful purchase.
func (g *Grid) OnPurchase(fn func()) {
	g.mu.Lock()
	g.onPurchase = fn
	g.mu.Unlock()
}

// Reload re-reads the pixel file and the persisted purchases.
func (g *Grid) Reload(ctx context.Context) error {
	base, err := g.loader.Load()
	if err != nil {
		return err
	}

	purchases := map[int]domain.Pixel{}
	if _, err := g.storage.Get(ctx, ports.KeyGridPurchases, &purchases); err != nil {
		return fmt.Errorf("failed to load grid purchases: %w", err)
	}
	if purchases == nil {
		purchases = map[int]domain.Pixel{}
	}

	g.mu.Lock()
	g.base = base
	g.purchases = purchases
	g.mu.Unlock()

	g.log.Info("grid loaded",
		logger.Int("pixels", len(base)),
		logger.Int("purchases", len(purchases)))
	return nil
}

// Pixels returns every pixel keyed by id. Purchases override file entries.
func (g *Grid) Pixels(_ context.Context) (map[int]domain.Pixel, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[int]domain.Pixel, len(g.base)+len(g.purchases))
	maps.Copy(out, g.base)
	maps.Copy(out, g.purchases)
	return out, nil
}

// Focus records the pixel the user's grid view should recenter on.
func (g *Grid) Focus(_ context.Context, userID string, pixelID int) error {
	if !g.inBounds(pixelID) {
		return fmt.Errorf("%w: %d", domain.ErrPixelNotFound, pixelID)
	}
	g.mu.Lock()
	g.focus[userID] = pixelID
	g.mu.Unlock()
	return nil
}

// Focused returns the pixel last focused by the user.
func (g *Grid) Focused(userID string) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.focus[userID]
	return id, ok
}

// Buy links a free pixel to a channel on behalf of userID. The purchase is
// persisted before it shows up in Pixels.
func (g *Grid) Buy(ctx context.Context, userID string, pixelID int, p Purchase) (domain.Pixel, error) {
	if !g.inBounds(pixelID) {
		return domain.Pixel{}, fmt.Errorf("%w: %d", domain.ErrPixelNotFound, pixelID)
	}
	if strings.TrimSpace(p.Channel) == "" && strings.TrimSpace(p.TelegramLink) == "" {
		return domain.Pixel{}, fmt.Errorf("%w: channel or telegramLink required", domain.ErrInvalidSubmission)
	}

	g.mu.Lock()
	current, owned := g.purchases[pixelID]
	if !owned {
		current, owned = g.base[pixelID]
	}
	if owned && current.Owner != "" {
		g.mu.Unlock()
		return domain.Pixel{}, fmt.Errorf("%w: %d", domain.ErrPixelTaken, pixelID)
	}

	px := domain.Pixel{
		Channel:      strings.TrimSpace(p.Channel),
		TelegramLink: strings.TrimSpace(p.TelegramLink),
		Description:  strings.TrimSpace(p.Description),
		Categories:   slices.Clone(p.Categories),
		Owner:        userID,
		PurchaseDate: g.now(),
		Price:        p.Price,
	}
	next := maps.Clone(g.purchases)
	if next == nil {
		next = make(map[int]domain.Pixel, 1)
	}
	next[pixelID] = px
	if err := g.storage.Set(ctx, ports.KeyGridPurchases, next); err != nil {
		g.mu.Unlock()
		return domain.Pixel{}, fmt.Errorf("failed to save purchase: %w", err)
	}
	g.purchases = next
	hook := g.onPurchase
	g.mu.Unlock()

	g.log.Info("pixel purchased",
		logger.Int("pixel_id", pixelID),
		logger.String("user", userID))
	if hook != nil {
		hook()
	}
	return px, nil
}

func (g *Grid) inBounds(pixelID int) bool {
	return pixelID >= 0 && pixelID < g.size
}
