package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/store/memory"
)

func TestBuyOverlaysPurchase(t *testing.T) {
	path := writeGrid(t, "pixels:\n  - id: 1\n    channel: \"@taken\"\n    owner: \"7\"\n")
	store := memory.NewStore()
	g := New(path, 100, store, logger.NewNop())
	ctx := context.Background()
	require.NoError(t, g.Reload(ctx))

	purchased := 0
	g.OnPurchase(func() { purchased++ })

	_, err := g.Buy(ctx, "42", 1, Purchase{Channel: "@mine"})
	assert.ErrorIs(t, err, domain.ErrPixelTaken)

	_, err = g.Buy(ctx, "42", 500, Purchase{Channel: "@mine"})
	assert.ErrorIs(t, err, domain.ErrPixelNotFound)

	_, err = g.Buy(ctx, "42", 2, Purchase{})
	assert.ErrorIs(t, err, domain.ErrInvalidSubmission)

	px, err := g.Buy(ctx, "42", 2, Purchase{Channel: "@mine", Categories: []string{"tech"}, Price: 3})
	require.NoError(t, err)
	assert.Equal(t, "42", px.Owner)
	assert.Equal(t, 1, purchased)

	pixels, err := g.Pixels(ctx)
	require.NoError(t, err)
	assert.Len(t, pixels, 2)
	assert.Equal(t, "@mine", pixels[2].Channel)

	// purchases survive a reload from storage
	other := New(path, 100, store, logger.NewNop())
	require.NoError(t, other.Reload(ctx))
	pixels, err = other.Pixels(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", pixels[2].Owner)
}

func TestFocus(t *testing.T) {
	g := New("", 100, memory.NewStore(), logger.NewNop())

	assert.ErrorIs(t, g.Focus(context.Background(), "42", 100), domain.ErrPixelNotFound)
	require.NoError(t, g.Focus(context.Background(), "42", 7))

	id, ok := g.Focused("42")
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	_, ok = g.Focused("43")
	assert.False(t, ok)
}
