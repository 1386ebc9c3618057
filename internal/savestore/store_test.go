package savestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/savegame"
	"github.com/cory-johannsen/adventure/internal/savestore"
)

func newRedisStore(t *testing.T) *savestore.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := savestore.NewRedisStore(context.Background(), mr.Addr(), "adv:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newFileStore(t *testing.T) *savestore.FileStore {
	t.Helper()
	st, err := savestore.NewFileStore(filepath.Join(t.TempDir(), "saves"), zap.NewNop())
	require.NoError(t, err)
	return st
}

func stores(t *testing.T) map[string]savestore.Store {
	return map[string]savestore.Store{
		"file":  newFileStore(t),
		"redis": newRedisStore(t),
	}
}

func TestSlotName(t *testing.T) {
	assert.Equal(t, "Savegame1.save", savestore.SlotName(1))
	assert.Equal(t, "Savegame12.save", savestore.SlotName(12))
}

func TestStore_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Read(ctx, 1)
			assert.True(t, errors.Is(err, savestore.ErrSlotNotFound))

			require.NoError(t, st.Write(ctx, 3, []byte("three")))
			require.NoError(t, st.Write(ctx, 1, []byte("one")))
			require.NoError(t, st.Write(ctx, 1, []byte("uno")))

			data, err := st.Read(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), data)

			slots, err := st.Slots(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 3}, slots)

			require.NoError(t, st.Delete(ctx, 3))
			assert.True(t, errors.Is(st.Delete(ctx, 3), savestore.ErrSlotNotFound))
			slots, err = st.Slots(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int{1}, slots)
		})
	}
}

func TestStore_RejectsNegativeSlot(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(st.Write(ctx, -1, nil), savestore.ErrInvalidSlot))
		})
	}
}

func TestFileStore_IgnoresForeignFiles(t *testing.T) {
	st := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, st.Write(ctx, 2, []byte("x")))
	dir := filepath.Dir(st.Path(2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Savegame2.save.json"), []byte("{}"), 0o644))

	slots, err := st.Slots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, slots)
}

func TestSlots_SaveLoadList(t *testing.T) {
	ctx := context.Background()
	slots := savestore.NewSlots(newRedisStore(t), savegame.NewCodec(true))
	doc := savegame.HashOf(map[string]savegame.Value{
		"version":   savegame.Int(savegame.Version),
		"savetime":  savegame.Int(1700000000),
		"gameTime":  savegame.Double(3600.5),
		"easy_mode": savegame.Int(1),
	})
	require.NoError(t, slots.Save(ctx, 4, doc))

	back, err := slots.Load(ctx, 4)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))

	_, err = slots.Load(ctx, 5)
	assert.True(t, errors.Is(err, savestore.ErrSlotNotFound))

	infos, err := slots.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 4, infos[0].Slot)
	assert.Equal(t, time.Unix(1700000000, 0), infos[0].SaveTime)
	assert.Equal(t, 3600.5, infos[0].GameTime)
	assert.True(t, infos[0].EasyMode)
}

func TestSlots_ListReportsCorruptSlot(t *testing.T) {
	ctx := context.Background()
	st := newFileStore(t)
	slots := savestore.NewSlots(st, savegame.NewCodec(false))
	require.NoError(t, slots.Save(ctx, 1, savegame.HashOf(map[string]savegame.Value{"savetime": savegame.Int(1)})))
	require.NoError(t, st.Write(ctx, 2, []byte("garbage")))

	infos, err := slots.List(ctx)
	assert.Error(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Slot)
}
