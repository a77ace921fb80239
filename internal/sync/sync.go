// Package sync sweeps a directory of exported deck files into a user's
// partition. The directory may be a plain folder or a checkout of a git
// repository kept fresh by gitsource.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/memodeck/memodeck/internal/deckio"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/gitsource"
	"github.com/memodeck/memodeck/internal/storage"
)

// Report summarises one import sweep.
type Report struct {
	Imported     int // decks created
	SkippedDecks int // files that failed to parse or collided on name
	SkippedCards int // malformed card entries dropped inside imported decks
}

// ImportDir walks dir for *.json deck files and imports each into the
// partition. A file that fails to parse, or whose deck name already
// exists, is logged and skipped; the sweep itself only fails on storage
// errors or an unwalkable directory.
func ImportDir(p *storage.Partition, dir string) (Report, error) {
	decks := storage.NewDeckStore(p)
	var report Report

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		file, err := deckio.Parse(data)
		if err != nil {
			slog.Warn("skipping invalid deck file", "path", path, "error", err)
			report.SkippedDecks++
			return nil
		}

		cards, skipped := file.BuildCards()
		report.SkippedCards += skipped

		switch _, err := decks.Import(file.DeckName, cards); {
		case err == nil:
			slog.Info("imported deck", "name", file.DeckName, "cards", len(cards), "path", path)
			report.Imported++
		case domain.IsDuplicateName(err):
			slog.Info("deck already present, skipping", "name", file.DeckName, "path", path)
			report.SkippedDecks++
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("sweep %s: %w", dir, err)
	}

	slog.Info("import sweep complete",
		"dir", dir,
		"imported", report.Imported,
		"skipped_decks", report.SkippedDecks,
		"skipped_cards", report.SkippedCards,
	)
	return report, nil
}

// ImportGit syncs the repository at url into checkoutDir and imports the
// deck files it contains.
func ImportGit(p *storage.Partition, url, checkoutDir string) (Report, error) {
	if err := gitsource.Sync(url, checkoutDir); err != nil {
		return Report{}, err
	}
	return ImportDir(p, checkoutDir)
}
