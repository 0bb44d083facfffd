package locator

import (
	"context"
	"fmt"
	"log/slog"

	"phiextract/internal/assets"
	"phiextract/internal/logging"
	"phiextract/internal/schema"
	"phiextract/internal/services"
)

// Script names of the behaviours the pipeline reads.
const (
	GameInformation   = "GameInformation"
	CollectionControl = "GetCollectionControl"
	TipsProvider      = "TipsProvider"
)

type target struct {
	script string
	mode   assets.ReadMode
}

var targets = []target{
	{script: GameInformation, mode: assets.ModeDefault},
	{script: CollectionControl, mode: assets.ModeFlat},
	{script: TipsProvider, mode: assets.ModeFlat},
}

// Scripts lists the script names the locator looks for.
func Scripts() []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.script)
	}
	return out
}

// ObjectSource exposes the objects of a loaded archive.
type ObjectSource interface {
	Objects() []*assets.Object
}

// Located holds the decoded behaviours. A nil field was not found.
type Located struct {
	GameInformation *assets.Fields
	Collections     *assets.Fields
	Tips            *assets.Fields
}

// Missing lists the script names that were not found, in lookup order.
func (l Located) Missing() []string {
	var out []string
	if l.GameInformation == nil {
		out = append(out, GameInformation)
	}
	if l.Collections == nil {
		out = append(out, CollectionControl)
	}
	if l.Tips == nil {
		out = append(out, TipsProvider)
	}
	return out
}

func (l *Located) set(script string, fields *assets.Fields) {
	switch script {
	case GameInformation:
		l.GameInformation = fields
	case CollectionControl:
		l.Collections = fields
	case TipsProvider:
		l.Tips = fields
	}
}

// Locate scans every behaviour object, matches its script name against the
// known scripts and decodes matches with the schema entry of the same name.
// When a script appears more than once the last object wins. Scripts that
// never appear are reported by Located.Missing, not as an error.
func Locate(ctx context.Context, src ObjectSource, s *schema.Schema, logger *slog.Logger) (Located, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var located Located
	seen := make(map[string]int)
	for _, obj := range src.Objects() {
		if err := ctx.Err(); err != nil {
			return Located{}, err
		}
		if obj.ClassID != assets.ClassMonoBehaviour {
			continue
		}
		name, err := obj.ScriptName()
		if err != nil {
			logger.Debug("behaviour script unresolved",
				logging.Int64("path_id", obj.PathID),
				logging.String("file", obj.File().Name),
				logging.Error(err),
			)
			continue
		}
		t, ok := lookup(name)
		if !ok {
			continue
		}
		nodes, ok := s.Nodes(t.script)
		if !ok {
			return Located{}, services.Wrap(services.ErrConfiguration, "locate", "schema lookup",
				fmt.Sprintf("schema has no entry for %s", t.script), nil)
		}
		fields, err := obj.Decode(nodes, t.mode)
		if err != nil {
			return Located{}, services.Wrap(services.ErrConfiguration, "locate", "decode",
				fmt.Sprintf("schema entry %s does not match the archive", t.script), err)
		}
		seen[t.script]++
		if seen[t.script] > 1 {
			logger.Debug("duplicate behaviour replaces earlier match",
				logging.String("script", t.script),
				logging.Int64("path_id", obj.PathID),
			)
		}
		located.set(t.script, fields)
	}
	for _, t := range targets {
		if n := seen[t.script]; n > 0 {
			logger.Debug("behaviour located", logging.String("script", t.script), logging.Int("matches", n))
		}
	}
	return located, nil
}

func lookup(script string) (target, bool) {
	for _, t := range targets {
		if t.script == script {
			return t, true
		}
	}
	return target{}, false
}
