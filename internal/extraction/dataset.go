package extraction

import (
	"fmt"
	"strconv"

	"phiextract/internal/catalog"
	"phiextract/internal/config"
	"phiextract/internal/emit"
	"phiextract/internal/gamedata"
	"phiextract/internal/locator"
	"phiextract/internal/normalize"
	"phiextract/internal/services"
)

var plainCSV = emit.Format{Delimiter: ',', Quote: emit.QuoteNone}

// Dataset holds the normalized records of one archive. Records whose source
// behaviour was not found stay empty and their Has flag is false.
type Dataset struct {
	HasGameInformation bool
	HasCollections     bool
	HasTips            bool

	Songs         normalize.SongRows
	Singles       []string
	Illustrations []string
	Collections   []normalize.CollectionEntry
	Avatars       []normalize.AvatarEntry
	Tips          []string
}

// buildDataset adapts the located behaviours into typed records and
// normalizes them.
func buildDataset(located locator.Located, cfg config.Extraction) (*Dataset, error) {
	ds := &Dataset{}
	if located.GameInformation != nil {
		info, err := gamedata.FromGameInformation(located.GameInformation)
		if err != nil {
			return nil, services.Wrap(services.ErrBadArchive, "normalize", locator.GameInformation, "unexpected layout", err)
		}
		ds.HasGameInformation = true
		ds.Songs = normalize.Songs(info, cfg.ExcludedCategories)
		ds.Singles, ds.Illustrations = normalize.Keys(info.Keys, cfg.ExcludedIllustrations)
	}
	if located.Collections != nil {
		field, err := gamedata.TitleField(cfg.TitleLanguage)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "normalize", "title language", "", err)
		}
		collections, err := gamedata.FromCollections(located.Collections, field)
		if err != nil {
			return nil, services.Wrap(services.ErrBadArchive, "normalize", locator.CollectionControl, "unexpected layout", err)
		}
		ds.HasCollections = true
		ds.Collections = normalize.Collections(collections)
		ds.Avatars = normalize.Avatars(collections)
	}
	if located.Tips != nil {
		tips, err := gamedata.FromTips(located.Tips)
		if err != nil {
			return nil, services.Wrap(services.ErrBadArchive, "normalize", locator.TipsProvider, "unexpected layout", err)
		}
		ds.HasTips = true
		ds.Tips = normalize.Tips(tips)
	}
	return ds, nil
}

// Summary is a one-line count of the normalized records.
func (d *Dataset) Summary() string {
	return fmt.Sprintf("%d songs, %d single keys, %d illustrations, %d collections, %d avatars, %d tips",
		len(d.Songs.Songs), len(d.Singles), len(d.Illustrations), len(d.Collections), len(d.Avatars), len(d.Tips))
}

// Tables renders the output tables for every source that was found. csv
// applies to the info table; difficulty rows are plain comma joins.
func (d *Dataset) Tables(csv emit.Format) []emit.Table {
	var tables []emit.Table
	if d.HasGameInformation {
		difficultyHeader := []string{"id"}
		for _, tier := range gamedata.Tiers {
			difficultyHeader = append(difficultyHeader, tier.String())
		}
		infoHeader := []string{"id", "song", "composer", "illustrator"}
		for i := 1; i <= d.Songs.CharterColumns; i++ {
			infoHeader = append(infoHeader, "charter"+strconv.Itoa(i))
		}
		tables = append(tables,
			emit.Table{File: emit.FileDifficulty, Header: difficultyHeader, Rows: d.Songs.Difficulty, Format: plainCSV},
			emit.Table{File: emit.FileInfo, Header: infoHeader, Rows: d.Songs.Info, Format: csv},
			emit.List(emit.FileSingle, d.Singles),
			emit.List(emit.FileIllustration, d.Illustrations),
		)
	}
	if d.HasCollections {
		collections := make([][]string, 0, len(d.Collections))
		for _, c := range d.Collections {
			collections = append(collections, []string{c.Key, c.Title, strconv.FormatInt(c.SubIndex, 10)})
		}
		names := make([]string, 0, len(d.Avatars))
		keys := make([][]string, 0, len(d.Avatars))
		for _, a := range d.Avatars {
			names = append(names, a.Name)
			keys = append(keys, []string{a.Name, a.Suffix})
		}
		tables = append(tables,
			emit.Table{File: emit.FileCollection, Rows: collections, Format: emit.TSV},
			emit.List(emit.FileAvatar, names),
			emit.Table{File: emit.FileAvatarKeys, Rows: keys, Format: emit.TSV},
		)
	}
	if d.HasTips {
		tables = append(tables, emit.List(emit.FileTips, d.Tips))
	}
	return tables
}

// Snapshot converts the dataset into a catalog snapshot.
func (d *Dataset) Snapshot(runID string) catalog.Snapshot {
	return catalog.Snapshot{
		RunID:         runID,
		Songs:         d.Songs.Songs,
		Singles:       d.Singles,
		Illustrations: d.Illustrations,
		Collections:   d.Collections,
		Avatars:       d.Avatars,
		Tips:          d.Tips,
	}
}
