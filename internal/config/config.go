package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the repo root.
const FileName = "releve.yaml"

// Config represents the top-level releve.yaml configuration.
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger"`
	Import     ImportConfig     `yaml:"import"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Log        LogConfig        `yaml:"log"`
}

// LedgerConfig locates the ledger store and names its tables.
type LedgerConfig struct {
	Path        string `yaml:"path"` // SQLite file, relative to the repo root
	Table       string `yaml:"table"`
	BackupTable string `yaml:"backup_table"`
	TempTable   string `yaml:"temp_table"`
}

// ImportConfig controls where statements are picked up.
type ImportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Rule maps a regular expression over the upper-cased label to a category.
type Rule struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// ClassifierConfig holds the ordered rule list and similarity settings.
type ClassifierConfig struct {
	DefaultCategory string   `yaml:"default_category"`
	Threshold       float64  `yaml:"threshold"` // 0-100
	Exclusions      []string `yaml:"exclusions"`
	Rules           []Rule   `yaml:"rules"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a releve.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the settings the pipeline cannot run without.
func (c *Config) Validate() error {
	l := c.Ledger
	if l.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if l.Table == "" || l.BackupTable == "" || l.TempTable == "" {
		return fmt.Errorf("ledger table names are required")
	}
	if l.Table == l.BackupTable || l.Table == l.TempTable || l.BackupTable == l.TempTable {
		return fmt.Errorf("ledger table names must be distinct")
	}
	if c.Classifier.DefaultCategory == "" {
		return fmt.Errorf("classifier.default_category is required")
	}
	if c.Classifier.Threshold < 0 || c.Classifier.Threshold > 100 {
		return fmt.Errorf("classifier.threshold %v out of range 0-100", c.Classifier.Threshold)
	}
	for i, r := range c.Classifier.Rules {
		if r.Category == "" || r.Pattern == "" {
			return fmt.Errorf("classifier.rules[%d]: category and pattern are required", i)
		}
	}
	return nil
}

// LedgerPath resolves the ledger file against the repo root.
func (c *Config) LedgerPath(repoRoot string) string {
	return resolve(repoRoot, c.Ledger.Path)
}

// ImportDir resolves the import directory against the repo root.
func (c *Config) ImportDir(repoRoot string) string {
	return resolve(repoRoot, c.Import.Dir)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Default returns a Config with the rule set and table names used for
// Crédit Agricole exports.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			Path:        "releve.db",
			Table:       "operations",
			BackupTable: "operations_old",
			TempTable:   "operations_temp",
		},
		Import: ImportConfig{
			Dir:    "import",
			Format: "ca",
		},
		Classifier: ClassifierConfig{
			DefaultCategory: "Uncategorized",
			Threshold:       90,
			Exclusions:      []string{"PHARMACIE", "ANDREA"},
			Rules:           DefaultRules(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultRules returns the stock ordered rule list. Earlier rules win.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Abonnements", Pattern: `(NETFLIX|SPOTIFY|DISNEY|APPLE|GOOGLE|MICROSOFT|PADDLE|HANDBALL\s?TV|YOUTUBE|UBER\s?EATS|UGC|PRIME\s?VIDEO|CANAL\+|DEEZER|MEDIAPART|ARRET\s?SUR\s?IMAGES)`},
		{Category: "Alimentation", Pattern: `(CARREFOUR|AUCHAN|LECLERC|INTERMARCHE|MONOPRIX|LIDL|FRANPRIX|SUPERMARCH|SUPERMARCHE|SUPERMARKET|SELECTA|MCDO|BURGER|KFC|RESTAURANT|DELIVEROO|JUST\s?EAT|COFFEE|CAFE|BOULANGERIE)`},
		{Category: "Banque", Pattern: `(SEPA|TIP|CB|FRAIS|AGIOS|BANCAIRE|COTISATION|CREDIT\s?AGRICOLE|REMBOURSEMENT\s+DE\s+PRET|ECHEANCE|PRELEVEMENT|OFFRE\s+GLOBE\s+TROTTER|GLOBE\s+TROTTER)`},
		{Category: "Logement", Pattern: `(EDF|ENGIE|SFR|FREE|ORANGE|LOYER|ASSURANCE\s?HABITATION|EAU|ELECTRICITE|INTERNET)`},
		{Category: "Vêtements", Pattern: `(ZARA|PRIMARK|H&M|LAFAYETTE|JULES|CELIO|BERSHKA|PULL\s?&?\s?BEAR|UNIQLO|DECATHLON|GO\s?SPORT|NIKE|ADIDAS|FOOT\s?LOCKER|SHEIN|MODE|VETEMENTS)`},
		{Category: "Transports", Pattern: `(SNCF|RATP|METRO|INDIGO|UBER|BOLT|NAVIGO|AUTOLIB|PARKING|PEAGE|TOTAL|ESSENCE|STATION|LYFT|CARBURANT|TAXI|RETRAIT\s+AU\s+DISTRIBUTEUR)`},
		{Category: "Transferts", Pattern: `(VIREMENT\s+EMIS|VIR\s+INST|VIR\s+SEPA|VIREMENT\s+RECU|CAISSE\s+NOIRE)`},
		{Category: "Loisirs", Pattern: `(AMAZON|FNAC|CULTURA|CINEMA|STEAM|JEU|GAME|PAYPAL|DECATHLON|FNAC\.COM|BILLETERIE)`},
	}
}
