package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pageza/recipe-api/backend/internal/testhelpers"
)

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestUploadImage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	updated, err := s.images.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Image, "recipes/"))
	assert.True(t, strings.HasSuffix(updated.Image, ".png"))
	assert.Equal(t, "/media/"+updated.Image, s.recipes.ImageURL(updated.Image))

	got, err := s.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Image, got.Image)
	assert.Equal(t, 1, countFiles(t, s.mediaRoot))
}

func TestUploadImageReplacesPrevious(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	first, err := s.images.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/png")
	require.NoError(t, err)
	firstKey := first.Image

	second, err := s.images.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.Image)
	assert.Contains(t, s.store.deleted, firstKey)
	assert.Equal(t, 1, countFiles(t, s.mediaRoot))
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	for _, payload := range [][]byte{[]byte("notanimage"), {}} {
		_, err := s.images.UploadImage(ctx, user.ID, recipe.ID, payload, "image/png")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "image")
	}

	got, err := s.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
	assert.Zero(t, countFiles(t, s.mediaRoot))
}

func TestUploadImageTooLarge(t *testing.T) {
	s := newServices(t)
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	_, err := s.images.UploadImage(context.Background(), user.ID, recipe.ID, make([]byte, s.images.MaxBytes()+1), "image/png")
	assert.True(t, IsValidation(err))
}

func TestUploadImageForeignRecipe(t *testing.T) {
	s := newServices(t)
	alice := testhelpers.CreateUser(t, s.db, "alice@x.com")
	bob := testhelpers.CreateUser(t, s.db, "bob@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, alice, "Soup", nil, nil)

	_, err := s.images.UploadImage(context.Background(), bob.ID, recipe.ID, pngBytes(t), "image/png")
	assert.ErrorIs(t, err, ErrNotFound)
}

// pngHeader returns a PNG that carries only a signature, an IHDR chunk
// announcing width x height and IEND. It is enough for DecodeConfig but
// has no pixel data.
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(kind string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestUploadImageRejectsHugeDimensions(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	payload := pngHeader(20000, 20000)
	require.Less(t, int64(len(payload)), s.images.MaxBytes())

	_, err := s.images.UploadImage(ctx, user.ID, recipe.ID, payload, "image/png")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields["image"], 1)
	assert.Contains(t, ve.Fields["image"][0], "20000x20000")

	got, err := s.recipes.Get(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
	assert.Zero(t, countFiles(t, s.mediaRoot))
}

func TestUploadImagePixelLimitIsConfigurable(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	// pngBytes is 4x4
	strict := NewImageService(s.recipes, s.store, ImageOptions{MaxPixels: 15}, zap.NewNop())
	_, err := strict.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/png")
	assert.True(t, IsValidation(err))
	assert.Zero(t, countFiles(t, s.mediaRoot))

	exact := NewImageService(s.recipes, s.store, ImageOptions{MaxPixels: 16}, zap.NewNop())
	_, err = exact.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 1, countFiles(t, s.mediaRoot))
}

func TestUploadImageUsesDetectedFormat(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, s.db, "a@x.com")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil, nil)

	core, logs := observer.New(zap.InfoLevel)
	images := NewImageService(s.recipes, s.store, ImageOptions{}, zap.New(core))

	updated, err := images.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), "image/jpeg; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(updated.Image, ".png"))

	mismatch := logs.FilterMessage("image content type differs from its content").All()
	require.Len(t, mismatch, 1)
	assert.Equal(t, "image/jpeg", mismatch[0].ContextMap()["declared"])
	assert.Equal(t, "image/png", mismatch[0].ContextMap()["detected"])

	for _, ct := range []string{"", "application/octet-stream", "image/png"} {
		_, err := images.UploadImage(ctx, user.ID, recipe.ID, pngBytes(t), ct)
		require.NoError(t, err)
	}
	assert.Len(t, logs.FilterMessage("image content type differs from its content").All(), 1)
}
