package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"pgregory.net/rapid"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigDrawSize), 4)
	is.Equal(cfg.GetInt(ConfigMaxRounds), 9)
	is.Equal(cfg.GetString(ConfigDistribution), "azul")
	is.Equal(cfg.GetString(ConfigOutputFormat), OutputFormatCSV)
	is.NoErr(cfg.Validate())
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{
		"--draw-size", "3",
		"--categories", "A,B,C",
		"--initial-counts", "5,6,7",
		"--output-format", "sqlite",
		"--threads", "4",
	})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigDrawSize), 3)
	is.Equal(cfg.GetStringSlice(ConfigCategories), []string{"A", "B", "C"})
	is.Equal(cfg.GetIntSlice(ConfigInitialCounts), []int{5, 6, 7})
	is.Equal(cfg.GetString(ConfigOutputFormat), OutputFormatSQLite)
	is.Equal(cfg.GetInt(ConfigThreads), 4)
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bagodds.yaml")
	is.NoErr(os.WriteFile(path, []byte("draw-size: 2\nmax-rounds: 3\n"), 0o644))

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path, "--max-rounds", "5"}))
	is.Equal(cfg.GetInt(ConfigDrawSize), 2)
	// flags win over the file
	is.Equal(cfg.GetInt(ConfigMaxRounds), 5)
}

func TestValidateRejects(t *testing.T) {
	is := is.New(t)
	cases := []struct {
		key string
		val any
	}{
		{ConfigDrawSize, -1},
		{ConfigMaxRounds, 0},
		{ConfigThreads, 0},
		{ConfigOutputFormat, "xlsx"},
		{ConfigMaterializeMemoryFraction, 1.5},
		{ConfigInitialCounts, []int{20, -1}},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		cfg.Set(c.key, c.val)
		is.True(cfg.Validate() != nil)
	}
}

func TestValidateLengthMismatch(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.Set(ConfigCategories, []string{"A", "B"})
	cfg.Set(ConfigInitialCounts, []int{1, 2, 3})
	is.True(cfg.Validate() != nil)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.AdjustRelativePaths("/opt/bagodds")
	is.Equal(cfg.GetString(ConfigDataPath), "/opt/bagodds/data")

	cfg.Set(ConfigDataPath, "/abs/data")
	cfg.AdjustRelativePaths("/opt/bagodds")
	is.Equal(cfg.GetString(ConfigDataPath), "/abs/data")
}

func TestPropertyValidDrawSizes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 100).Draw(t, "draw_size")
		cfg := DefaultConfig()
		cfg.Set(ConfigDrawSize, n)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid draw size %d rejected: %v", n, err)
		}
	})
}

func TestLoadPositionalArgs(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--threads", "2", "prob", "--", "save", "x.db", "-format", "sqlite"}))
	is.Equal(cfg.GetInt(ConfigThreads), 2)
	is.Equal(cfg.Args(), []string{"prob", "save", "x.db", "-format", "sqlite"})
}
