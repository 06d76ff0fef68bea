package board

import (
	"github.com/domino14/blobwar/cache"
	"github.com/domino14/blobwar/config"
)

const cachePrefix = "board:"

func loadFunc(cfg *config.Config, key string) (any, error) {
	return Load(cfg.GetString(config.ConfigBoardsPath), key[len(cachePrefix):])
}

// Get returns the named layout, loading it from the configured boards
// directory the first time. The standard layout needs no file.
func Get(cfg *config.Config, name string) (*Board, error) {
	if name == "" || name == "standard" {
		obj, err := cache.Load(cfg, cachePrefix+"standard", func(*config.Config, string) (any, error) {
			return Default(), nil
		})
		if err != nil {
			return nil, err
		}
		return obj.(*Board), nil
	}
	obj, err := cache.Load(cfg, cachePrefix+name, loadFunc)
	if err != nil {
		return nil, err
	}
	return obj.(*Board), nil
}
