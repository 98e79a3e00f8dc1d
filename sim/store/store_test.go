package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func TestLocal_PutGetListDelete(t *testing.T) {
	// GIVEN an empty local store
	ctx := context.Background()
	s := NewLocal(filepath.Join(t.TempDir(), "artefacts"))

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// WHEN artefacts are written under nested keys
	require.NoError(t, s.Put(ctx, "properties/exp/b.json", []byte("b")))
	require.NoError(t, s.Put(ctx, "properties/exp/a.json", []byte("a")))
	require.NoError(t, s.Put(ctx, "models/m.model", []byte("m")))

	// THEN they read back and list in order
	data, err := s.Get(ctx, "properties/exp/a.json")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err = s.List(ctx, "properties/")
	require.NoError(t, err)
	assert.Equal(t, []string{"properties/exp/a.json", "properties/exp/b.json"}, keys)

	ok, err := s.Exists(ctx, "models/m.model")
	require.NoError(t, err)
	assert.True(t, ok)

	// AND deletion is idempotent
	require.NoError(t, s.Delete(ctx, "models/m.model"))
	require.NoError(t, s.Delete(ctx, "models/m.model"))
	ok, err = s.Exists(ctx, "models/m.model")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "models/m.model")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocal_PutReplacesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocal(dir)
	require.NoError(t, s.Put(ctx, "x.json", []byte("one")))
	require.NoError(t, s.Put(ctx, "x.json", []byte("two")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := s.Get(ctx, "x.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocal_KeysStayBelowRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocal(filepath.Join(dir, "root"))
	require.NoError(t, s.Put(ctx, "../escape.json", []byte("x")))

	_, err := os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(dir, "root", "escape.json"))
	assert.NoError(t, err)

	assert.Error(t, s.Put(ctx, "", []byte("x")))
}

func TestCodec_RoundTripsEveryCompression(t *testing.T) {
	type payload struct {
		Name   string      `json:"name"`
		Values [][]float64 `json:"values"`
	}
	rows := make([][]float64, 200)
	for i := range rows {
		rows[i] = []float64{0.25, 0.5, float64(i)}
	}
	in := payload{Name: strings.Repeat("nanowires2d_cSi_1.0 ", 10), Values: rows}

	for _, name := range []string{"none", "lz4", "zstd"} {
		t.Run(name, func(t *testing.T) {
			comp, err := ParseCompression(name)
			require.NoError(t, err)
			c := Codec{Compression: comp}

			data, err := c.Encode(in)
			require.NoError(t, err)
			assert.Equal(t, byte(comp), data[4])

			// AND any codec can decode it
			var out payload
			require.NoError(t, Codec{}.Decode(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestCodec_CompressesRepetitivePayloads(t *testing.T) {
	in := strings.Repeat("0.123456789,", 1000)
	plain, err := Codec{}.Encode(in)
	require.NoError(t, err)
	packed, err := Codec{Compression: CompressionZSTD}.Encode(in)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(plain)/4)
}

func TestCodec_RejectsCorruptData(t *testing.T) {
	var v any
	assert.ErrorIs(t, Codec{}.Decode([]byte("{}"), &v), ErrCorrupt)

	data, err := Codec{Compression: CompressionZSTD}.Encode(strings.Repeat("a", 4096))
	require.NoError(t, err)
	assert.ErrorIs(t, Codec{}.Decode(data[:len(data)-1], &v), ErrCorrupt)

	bad := bytes.Clone(data)
	bad[4] = 9
	assert.ErrorIs(t, Codec{}.Decode(bad, &v), ErrCorrupt)
}

func TestParseCompression_Unknown(t *testing.T) {
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "lz4", CompressionLZ4.String())
}

func TestSaveLoad_ThroughStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(t.TempDir())
	c := Codec{Compression: CompressionLZ4}

	require.NoError(t, Save(ctx, s, c, "collections/a.collection", map[string][]float64{"x": {1, 2}}))
	var got map[string][]float64
	require.NoError(t, Load(ctx, s, c, "collections/a.collection", &got))
	assert.Equal(t, []float64{1, 2}, got["x"])

	require.NoError(t, SaveJSON(ctx, s, "results/r.json", map[string]int{"n": 3}))
	var r map[string]int
	require.NoError(t, LoadJSON(ctx, s, "results/r.json", &r))
	assert.Equal(t, 3, r["n"])

	err := Load(ctx, s, c, "collections/missing.collection", &got)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr string
	}{
		"local":          {cfg: Config{Backend: BackendLocal, Codec: "zstd"}},
		"bad backend":    {cfg: Config{Backend: "ftp", Codec: "zstd"}, wantErr: "store.backend"},
		"bad codec":      {cfg: Config{Backend: BackendLocal, Codec: "gzip"}, wantErr: "store.codec"},
		"minio endpoint": {cfg: Config{Backend: BackendMinIO, Codec: "none", Bucket: "b"}, wantErr: "store.endpoint"},
		"minio bucket":   {cfg: Config{Backend: BackendMinIO, Codec: "none", Endpoint: "h:9000"}, wantErr: "store.bucket"},
		"s3 bucket":      {cfg: Config{Backend: BackendS3, Codec: "none"}, wantErr: "store.bucket"},
		"s3":             {cfg: Config{Backend: BackendS3, Codec: "lz4", Bucket: "b"}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOpen_LocalAndUnregisteredRemote(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), Config{Backend: BackendLocal, Codec: "none"}, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.(*Local).Root())

	saved := NewMinIOFunc
	NewMinIOFunc = nil
	defer func() { NewMinIOFunc = saved }()
	_, err = Open(context.Background(), Config{Backend: BackendMinIO, Codec: "none", Endpoint: "h", Bucket: "b"}, dir)
	assert.Error(t, err)
}
