package main

import (
	"context"

	"github.com/fastanime/fastanime-core/internal/mediaapi"
	"github.com/fastanime/fastanime-core/internal/menu"
	"github.com/fastanime/fastanime-core/internal/player"
	"github.com/fastanime/fastanime-core/internal/provider"
	"github.com/fastanime/fastanime-core/internal/registry"
)

// The media API, provider, and player collaborators all take a
// context.Context and return package-local result types; the menu
// handlers only know about ctx-free, menu-local shapes. These adapters
// close over a background context and translate between the two, so a
// handler test can substitute a fake without ever importing the
// concrete clients. selector.Exec needs no such adapter: its method set
// already matches menu.Selector exactly.

type mediaAPIAdapter struct {
	client *mediaapi.Client
}

func (a mediaAPIAdapter) SearchMedia(params map[string]string) (menu.SearchResult, error) {
	res, err := a.client.SearchMedia(context.Background(), params)
	if err != nil {
		return menu.SearchResult{}, err
	}
	return menu.SearchResult{
		PageInfo: menu.PageInfo{
			CurrentPage: res.PageInfo.CurrentPage,
			HasNextPage: res.PageInfo.HasNextPage,
			Total:       res.PageInfo.Total,
		},
		Media: convertMediaItems(res.Media),
	}, nil
}

func (a mediaAPIAdapter) IsAuthenticated() bool { return a.client.IsAuthenticated() }

func convertMediaItems(items []mediaapi.MediaItem) []registry.MediaItem {
	out := make([]registry.MediaItem, len(items))
	for i, m := range items {
		out[i] = registry.MediaItem{
			ID:           m.ID,
			TitleEnglish: m.TitleEnglish,
			TitleRomaji:  m.TitleRomaji,
			TitleNative:  m.TitleNative,
			Status:       m.Status,
			Episodes:     m.Episodes,
			CoverImage:   m.CoverImage,
		}
	}
	return out
}

type providerAdapter struct {
	client *provider.Client
}

func (a providerAdapter) Search(query string) ([]menu.ProviderResult, error) {
	res, err := a.client.Search(context.Background(), query)
	if err != nil {
		return nil, err
	}
	out := make([]menu.ProviderResult, len(res))
	for i, r := range res {
		out[i] = menu.ProviderResult{ID: r.ID, Title: r.Title}
	}
	return out, nil
}

func (a providerAdapter) EpisodeServers(animeID string, episode int) (map[string]string, error) {
	return a.client.EpisodeServers(context.Background(), animeID, episode)
}

type playerAdapter struct {
	launcher *player.Launcher
}

func (a playerAdapter) Play(url, title string) (menu.PlayerResult, error) {
	res, err := a.launcher.Play(context.Background(), url, title)
	if err != nil {
		return menu.PlayerResult{}, err
	}
	return menu.PlayerResult{
		ExitStatus: res.ExitStatus,
		StopTime:   res.StopTime,
		TotalTime:  res.TotalTime,
	}, nil
}
