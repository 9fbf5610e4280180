package service

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-file-manager/internal/model"
	"go-file-manager/internal/repository"
	"go-file-manager/internal/storage"
)

type testEnv struct {
	disk       *storage.Disk
	activity   *ActivityService
	trash      *TrashService
	trashStore *repository.TrashMemoryStore
	actor      model.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	disk, err := storage.New(t.TempDir())
	require.NoError(t, err)

	activity := NewActivityService(repository.NewActivityMemoryStore())
	trashStore := repository.NewTrashMemoryStore()
	trash, err := NewTrashService(disk, t.TempDir(), trashStore, activity, nil)
	require.NoError(t, err)

	return &testEnv{
		disk:       disk,
		activity:   activity,
		trash:      trash,
		trashStore: trashStore,
		actor:      model.Actor{IP: "192.0.2.10", UserAgent: "test"},
	}
}

func (e *testEnv) mustWriteFile(t *testing.T, clientPath string, content string) {
	t.Helper()

	_, err := e.disk.WriteAtomic(clientPath, strings.NewReader(content), 0o644)
	require.NoError(t, err)
}

func (e *testEnv) mustMkdirAll(t *testing.T, clientPath string) {
	t.Helper()
	require.NoError(t, e.disk.MkdirAll(clientPath, 0o755))
}

func readAll(disk *storage.Disk, clientPath string) (string, error) {
	f, err := disk.OpenForRead(clientPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
