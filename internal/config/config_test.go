//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/repo-saves/internal/config"
	"github.com/joe/repo-saves/internal/savebundle"
)

func TestFormatString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		f        config.Format
		expected string
	}{
		{config.FormatTable, "table"},
		{config.FormatYAML, "yaml"},
		{config.Format(999), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.expected {
			t.Errorf("Format(%d).String() = %q, want %q", tt.f, got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.Format
		wantErr  bool
	}{
		{"table", config.FormatTable, false},
		{"TABLE", config.FormatTable, false},
		{"yaml", config.FormatYAML, false},
		{"yml", config.FormatYAML, false},
		{"json", config.FormatTable, true},
		{"", config.FormatTable, true},
	}

	for _, tt := range tests {
		got, err := config.ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDescription(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}

	if cfg.Description() == "" {
		t.Error("Description() should not be empty")
	}

	if cfg.Version() != config.ProgramName+" "+config.BuildVersion {
		t.Errorf("Version() = %q, want the program name and build version", cfg.Version())
	}
}

func TestParseArgs_NoSubcommandIsInteractive(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg, err := config.ParseArgs([]string{"--save-dir", "/games/saves", "--watch"})
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(cfg.Interactive()).To(BeTrue())
	g.Expect(cfg.SaveDir).To(Equal("/games/saves"))
	g.Expect(cfg.Watch).To(BeTrue())
	g.Expect(cfg.Verify).To(BeFalse())
}

func TestParseArgs_Subcommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(g *WithT, cfg *config.Config)
	}{
		{
			name: "list defaults to table",
			args: []string{"list"},
			check: func(g *WithT, cfg *config.Config) {
				g.Expect(cfg.List).ToNot(BeNil())
				g.Expect(cfg.List.Format).To(Equal(config.FormatTable))
			},
		},
		{
			name: "list as yaml",
			args: []string{"list", "--format", "yaml"},
			check: func(g *WithT, cfg *config.Config) {
				g.Expect(cfg.List.Format).To(Equal(config.FormatYAML))
			},
		},
		{
			name: "backup",
			args: []string{"--verify", "backup", "SAVE_A"},
			check: func(g *WithT, cfg *config.Config) {
				g.Expect(cfg.Backup).To(Equal(&config.BackupCmd{Name: "SAVE_A"}))
				g.Expect(cfg.Verify).To(BeTrue())
			},
		},
		{
			name: "restore with yes",
			args: []string{"restore", "SAVE_A", "--yes"},
			check: func(g *WithT, cfg *config.Config) {
				g.Expect(cfg.Restore).To(Equal(&config.RestoreCmd{Name: "SAVE_A", Yes: true}))
			},
		},
		{
			name: "delete",
			args: []string{"--backup-dir", "sftp://joe@nas/backups", "delete", "SAVE_B"},
			check: func(g *WithT, cfg *config.Config) {
				g.Expect(cfg.Delete).To(Equal(&config.DeleteCmd{Name: "SAVE_B"}))
				g.Expect(cfg.BackupDir).To(Equal("sftp://joe@nas/backups"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg, err := config.ParseArgs(tt.args)
			g.Expect(err).ShouldNot(HaveOccurred())
			g.Expect(cfg.Interactive()).To(BeFalse())
			tt.check(g, cfg)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"list", "--format", "json"}},
		{"missing name", []string{"backup"}},
		{"name with separator", []string{"restore", "a/b"}},
		{"remote dir without user", []string{"--backup-dir", "sftp://nas/backups", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := config.ParseArgs(tt.args)
			g.Expect(err).Should(HaveOccurred())
			g.Expect(config.IsHelp(err)).To(BeFalse())
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.ParseArgs([]string{"--help"})
	g.Expect(config.IsHelp(err)).To(BeTrue())

	_, err = config.ParseArgs([]string{"--version"})
	g.Expect(config.IsHelp(err)).To(BeTrue())
}

func TestPostProcessConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name: "no subcommand",
			cfg:  config.Config{},
		},
		{
			name:    "dot name",
			cfg:     config.Config{Delete: &config.DeleteCmd{Name: ".."}},
			wantErr: savebundle.ErrInvalidName,
		},
		{
			name: "valid remote save dir",
			cfg:  config.Config{SaveDir: "sftp://joe@host:2222//srv/saves", List: &config.ListCmd{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg, err := config.PostProcessConfig(&tt.cfg)
			if tt.wantErr != nil {
				g.Expect(err).To(MatchError(tt.wantErr))
				g.Expect(cfg).To(BeNil())

				return
			}

			g.Expect(err).ShouldNot(HaveOccurred())
			g.Expect(cfg).To(BeIdenticalTo(&tt.cfg))
		})
	}
}
