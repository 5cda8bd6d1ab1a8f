package sidecar

import (
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore() (*Store, afero.Fs) {
	mem := afero.NewMemMapFs()
	return NewStore(mem, "/meta", zap.NewNop()), mem
}

func TestOverwriteThenReadAll(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Overwrite("/w/report.bak", SourceChannel, []byte("draft")))

	data, err := s.ReadAll("/w/report.bak", SourceChannel)
	require.NoError(t, err)
	assert.Equal(t, "draft", string(data))

	// Overwrite replaces, never appends.
	require.NoError(t, s.Overwrite("/w/report.bak", SourceChannel, []byte("final")))
	data, err = s.ReadAll("/w/report.bak", SourceChannel)
	require.NoError(t, err)
	assert.Equal(t, "final", string(data))
}

func TestAppendAccumulates(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Append("/w/report.bak", AuditChannel, []byte("one\n")))
	require.NoError(t, s.Append("/w/report.bak", AuditChannel, []byte("two\n")))

	data, err := s.ReadAll("/w/report.bak", AuditChannel)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestReadAllMissingChannel(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.ReadAll("/w/report.bak", AuditChannel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestChannelsAreIndependentPerFile(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.Overwrite("/w/a.bak", SourceChannel, []byte("tag-a")))
	require.NoError(t, s.Overwrite("/w/b.bak", SourceChannel, []byte("tag-b")))
	require.NoError(t, s.Append("/w/a.bak", AuditChannel, []byte("entry\n")))

	a, err := s.ReadAll("/w/a.bak", SourceChannel)
	require.NoError(t, err)
	b, err := s.ReadAll("/w/b.bak", SourceChannel)
	require.NoError(t, err)
	assert.Equal(t, "tag-a", string(a))
	assert.Equal(t, "tag-b", string(b))

	_, err = s.ReadAll("/w/b.bak", AuditChannel)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "/w/a.bak:source", Address("/w/a.bak", SourceChannel))
	assert.Equal(t, "/w/a.bak:meta_audit", Address("/w/a.bak", AuditChannel))
}

// flakyFs fails Open on a given name a fixed number of times before
// delegating, simulating transient read errors.
type flakyFs struct {
	afero.Fs
	failName  string
	remaining int
}

func (f *flakyFs) Open(name string) (afero.File, error) {
	if name == f.failName && f.remaining > 0 {
		f.remaining--
		return nil, errors.New("transient read failure")
	}
	return f.Fs.Open(name)
}

func TestReadAllRetriesTransientFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	seed := NewStore(mem, "/meta", zap.NewNop())
	require.NoError(t, seed.Overwrite("/w/report.bak", AuditChannel, []byte("entry\n")))
	cp := seed.channelPath("/w/report.bak", AuditChannel)

	flaky := &flakyFs{Fs: mem, failName: cp, remaining: 2}
	s := NewStore(flaky, "/meta", zap.NewNop())
	data, err := s.ReadAll("/w/report.bak", AuditChannel)
	require.NoError(t, err)
	assert.Equal(t, "entry\n", string(data))
	assert.Zero(t, flaky.remaining)
}

// appendFailFs rejects every O_APPEND open so Append must take the
// copy-through-temp fallback.
type appendFailFs struct {
	afero.Fs
}

func (f appendFailFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_APPEND != 0 {
		return nil, errors.New("append unsupported")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestAppendFallsBackToTempFile(t *testing.T) {
	mem := afero.NewMemMapFs()
	seed := NewStore(mem, "/meta", zap.NewNop())
	require.NoError(t, seed.Overwrite("/w/report.bak", AuditChannel, []byte("old\n")))

	s := NewStore(appendFailFs{Fs: mem}, "/meta", zap.NewNop())
	require.NoError(t, s.Append("/w/report.bak", AuditChannel, []byte("new\n")))

	data, err := seed.ReadAll("/w/report.bak", AuditChannel)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestPathKeyIsStable(t *testing.T) {
	k1 := pathKey("/w/report.bak")
	k2 := pathKey("/w/report.bak")
	k3 := pathKey("/w/other.bak")
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, 12)
}
