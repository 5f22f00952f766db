package report

import (
	"fmt"
	"io"

	"github.com/bagodds/bagodds/config"
	"github.com/bagodds/bagodds/session"
	"github.com/bagodds/bagodds/tilemapping"
)

// RoundWriter is a results table a session can record to.
type RoundWriter interface {
	session.Recorder
	io.Closer
}

// OpenRoundWriter opens a results table in the given format at path.
func OpenRoundWriter(format, path string, p *tilemapping.Palette) (RoundWriter, error) {
	switch format {
	case config.OutputFormatCSV:
		w, err := CreateCSV(path, p)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.OutputFormatSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// RoundWriterFromConfig opens the configured results table, or returns nil
// when no output is configured.
func RoundWriterFromConfig(cfg *config.Config, p *tilemapping.Palette) (RoundWriter, error) {
	path := cfg.GetString(config.ConfigOutput)
	if path == "" {
		return nil, nil
	}
	return OpenRoundWriter(cfg.GetString(config.ConfigOutputFormat), path, p)
}
