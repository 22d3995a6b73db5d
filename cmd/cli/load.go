package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"troskovnik-service/internal/fileio"
	"troskovnik-service/internal/weightstore"
	"troskovnik-service/internal/workbook/model"
	"troskovnik-service/internal/workbook/service"
)

type sessionFiles struct {
	catalogs  []string
	weights   string
	history   string
	worksheet string
}

func readFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fileio.ReadAnyMaps(f, path, 0)
}

// loadWeights reads a weight table file, or the configured store when path is empty.
func loadWeights(ctx context.Context, path string) (*weightstore.Store, error) {
	if path == "" {
		return weightstore.Open(ctx, cfg.Weight, logger)
	}
	maps, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	st := weightstore.New(nil, cfg.Weight.PushTimeout, logger)
	st.Replace(fileio.ToWeightEntries(maps, fileio.DefaultColumns()))
	return st, nil
}

// loadSession builds a session from local files. Every catalog file becomes a source
// named after the file.
func loadSession(ctx context.Context, files sessionFiles) (*service.Session, *weightstore.Store, error) {
	weights, err := loadWeights(ctx, files.weights)
	if err != nil {
		return nil, nil, err
	}
	s := service.NewSession(weights)
	cols := fileio.DefaultColumns()

	var catalog []model.Article
	for _, path := range files.catalogs {
		maps, err := readFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: %w", err)
		}
		catalog = append(catalog, fileio.ToArticles(maps, cols, filepath.Base(path))...)
	}
	s.SetCatalog(catalog)

	if files.history != "" {
		maps, err := readFile(files.history)
		if err != nil {
			return nil, nil, fmt.Errorf("history: %w", err)
		}
		s.History = fileio.ToHistory(maps, cols)
	}
	if files.worksheet != "" {
		maps, err := readFile(files.worksheet)
		if err != nil {
			return nil, nil, fmt.Errorf("worksheet: %w", err)
		}
		lines, warnings := fileio.ToLines(maps, cols)
		for _, w := range warnings {
			logger.Warn().Str("file", files.worksheet).Msg(w)
		}
		if err := s.SetLines(lines); err != nil {
			return nil, nil, err
		}
	}
	logger.Debug().
		Int("articles", len(s.Articles)).
		Int("history", len(s.History)).
		Int("lines", len(s.Lines)).
		Int("weights", weights.Len()).
		Msg("session loaded")
	return s, weights, nil
}
