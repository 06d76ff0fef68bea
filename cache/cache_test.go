package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	calls := 0
	loader := func(cfg *config.Config, key string) (any, error) {
		calls++
		return "obj-" + key, nil
	}
	obj, err := Load(cfg, "cache-test-a", loader)
	is.NoErr(err)
	is.Equal(obj, "obj-cache-test-a")
	obj, err = Load(cfg, "cache-test-a", loader)
	is.NoErr(err)
	is.Equal(obj, "obj-cache-test-a")
	is.Equal(calls, 1)
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	boom := errors.New("boom")
	_, err := Load(cfg, "cache-test-err", func(*config.Config, string) (any, error) {
		return nil, boom
	})
	is.Equal(err, boom)

	Store("cache-test-err", 42)
	obj, err := Load(cfg, "cache-test-err", func(*config.Config, string) (any, error) {
		return nil, boom
	})
	is.NoErr(err)
	is.Equal(obj, 42)
}
