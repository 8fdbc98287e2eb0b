package memory

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// SettingsStore is the persistent per-guild channel configuration.
type SettingsStore interface {
	ChannelSetting(ctx context.Context, guildID, name string) (string, error)
	SetChannelSetting(ctx context.Context, guildID, name, channelID string) error
}

type settingsEntry struct {
	channelID string
	found     bool
}

// CachedSettings fronts a SettingsStore with an LRU. The trigger check runs on
// every guild message, so lookups (including misses) are cached and writes
// through this wrapper invalidate their key.
type CachedSettings struct {
	SettingsStore
	cache    *lru.Cache[string, settingsEntry]
	notFound error
}

// NewCachedSettings wraps store. notFound is the store's "no row" sentinel;
// misses reported with it are cached as empty.
func NewCachedSettings(store SettingsStore, size int, notFound error) *CachedSettings {
	cache, err := lru.New[string, settingsEntry](size)
	if err != nil {
		log.Warnf("Error creating settings LRU cache: %v. Using size 1000.", err)
		cache, _ = lru.New[string, settingsEntry](1000)
	}
	return &CachedSettings{SettingsStore: store, cache: cache, notFound: notFound}
}

func settingsKey(guildID, name string) string {
	return guildID + ":" + name
}

func (c *CachedSettings) ChannelSetting(ctx context.Context, guildID, name string) (string, error) {
	key := settingsKey(guildID, name)
	if entry, ok := c.cache.Get(key); ok {
		if !entry.found {
			return "", c.notFound
		}
		return entry.channelID, nil
	}

	channelID, err := c.SettingsStore.ChannelSetting(ctx, guildID, name)
	if err != nil {
		if c.notFound != nil && errors.Is(err, c.notFound) {
			c.cache.Add(key, settingsEntry{})
		}
		return "", err
	}

	c.cache.Add(key, settingsEntry{channelID: channelID, found: true})
	return channelID, nil
}

func (c *CachedSettings) SetChannelSetting(ctx context.Context, guildID, name, channelID string) error {
	if err := c.SettingsStore.SetChannelSetting(ctx, guildID, name, channelID); err != nil {
		return err
	}
	c.cache.Remove(settingsKey(guildID, name))
	return nil
}
