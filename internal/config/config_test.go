package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hggrip/internal/eventbus"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	svc := NewConfigServiceWithBus(nil, filepath.Join(t.TempDir(), "config.toml"))

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "hg_path = \"/usr/local/bin/hg\"\ncommand_timeout = \"30s\"\n\n[ui]\nshow_closed_branches = true\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	bus := eventbus.New()
	defer bus.Close()
	loaded := make(chan string, 1)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		loaded <- e.(eventbus.ConfigLoadedEvent).Path
	})

	cfg, err := NewConfigServiceWithBus(bus, path).Load()
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/hg", cfg.HgPath)
	assert.True(t, cfg.UISettings.ShowClosedBranches)
	assert.Equal(t, 10, cfg.UISettings.PanelHeight)
	assert.Equal(t, "hggrip.log", cfg.LogFile)
	assert.True(t, cfg.Watch)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	select {
	case p := <-loaded:
		assert.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("no ConfigLoaded event")
	}
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "hg_path = \n"},
		{"empty hg path", "hg_path = \"\"\n"},
		{"bad timeout", "command_timeout = \"soon\"\n"},
		{"negative panel", "[ui]\npanel_height = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := NewConfigServiceWithBus(nil, path).Load()
			assert.Error(t, err)
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	svc := NewConfigServiceWithBus(nil, path)

	cfg := DefaultConfig()
	cfg.Encoding = "latin-1"
	cfg.UISettings.PanelHeight = 4
	require.NoError(t, svc.Save(cfg))

	got, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1m", time.Minute, false},
		{"-5s", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := (&Config{CommandTimeout: tt.in}).Timeout()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}
