package config

// Config holds inkwell configuration.
// Loaded from ./config.yaml or ~/.inkwell/config.yaml.
type Config struct {
	Platform     PlatformCfg     `mapstructure:"platform" yaml:"platform"`
	Selection    SelectionCfg    `mapstructure:"selection" yaml:"selection"`
	RegionModel  RegionModelCfg  `mapstructure:"region_model" yaml:"region_model"`
	LineModel    LineModelCfg    `mapstructure:"line_model" yaml:"line_model"`
	Recognition  RecognitionCfg  `mapstructure:"recognition" yaml:"recognition"`
	Validation   ValidationCfg   `mapstructure:"validation" yaml:"validation"`
	StatusChange StatusChangeCfg `mapstructure:"status_change" yaml:"status_change"`
	Replace      ReplaceCfg      `mapstructure:"replace" yaml:"replace"`
	Download     DownloadCfg     `mapstructure:"download" yaml:"download"`
}

// PlatformCfg configures the Transkribus client.
type PlatformCfg struct {
	BaseURL              string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	PollIntervalSeconds  int    `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	PollTimeoutMinutes   int    `mapstructure:"poll_timeout_minutes" yaml:"poll_timeout_minutes"`
	DownloadAttempts     int    `mapstructure:"download_attempts" yaml:"download_attempts"`
	DownloadDelaySeconds int    `mapstructure:"download_delay_seconds" yaml:"download_delay_seconds"`
}

// SelectionCfg configures which collections, documents and pages a
// transcription run touches.
type SelectionCfg struct {
	// DropCollections excludes collections by ID.
	DropCollections []int `mapstructure:"drop_collections" yaml:"drop_collections"`
	// DocFilterFile is a CSV with one document ID per line; when set,
	// only listed documents are processed.
	DocFilterFile   string   `mapstructure:"doc_filter_file" yaml:"doc_filter_file"`
	DropPageNumbers []int    `mapstructure:"drop_page_numbers" yaml:"drop_page_numbers"`
	DropStatuses    []string `mapstructure:"drop_statuses" yaml:"drop_statuses"`
	// DropFollowing extends a status exclusion to all later pages of the
	// document. Off unless explicitly requested.
	DropFollowing bool `mapstructure:"drop_following" yaml:"drop_following"`
}

// RegionModelCfg configures the text region recognition (P2PaLA) step.
type RegionModelCfg struct {
	ModelID        int     `mapstructure:"model_id" yaml:"model_id"`
	ModelName      string  `mapstructure:"model_name" yaml:"model_name"`
	MinArea        float64 `mapstructure:"min_area" yaml:"min_area"`
	RectifyRegions bool    `mapstructure:"rectify_regions" yaml:"rectify_regions"`
	EnrichExisting bool    `mapstructure:"enrich_existing" yaml:"enrich_existing"`
	LabelRegions   bool    `mapstructure:"label_regions" yaml:"label_regions"`
	LabelLines     bool    `mapstructure:"label_lines" yaml:"label_lines"`
	LabelWords     bool    `mapstructure:"label_words" yaml:"label_words"`
	KeepExisting   bool    `mapstructure:"keep_existing" yaml:"keep_existing"`
}

// LineModelCfg configures the text line recognition (line finder) step.
// Params carries the tool's tuning keys (pars.*) verbatim.
type LineModelCfg struct {
	ModelID   int               `mapstructure:"model_id" yaml:"model_id"`
	ModelName string            `mapstructure:"model_name" yaml:"model_name"`
	Params    map[string]string `mapstructure:"params" yaml:"params"`
}

// RecognitionCfg configures the text recognition (HTR) step.
type RecognitionCfg struct {
	ModelID       int    `mapstructure:"model_id" yaml:"model_id"`
	LanguageModel string `mapstructure:"language_model" yaml:"language_model"`
	BatchSize     int    `mapstructure:"batch_size" yaml:"batch_size"`
	DoWordSeg     bool   `mapstructure:"do_word_seg" yaml:"do_word_seg"`
}

// ValidationCfg configures the model validation run.
type ValidationCfg struct {
	RegionTypes  []string `mapstructure:"region_types" yaml:"region_types"`
	Reference    string   `mapstructure:"reference" yaml:"reference"`
	Prediction   string   `mapstructure:"prediction" yaml:"prediction"`
	FilterStatus []string `mapstructure:"filter_status" yaml:"filter_status"`
	HistBinWidth float64  `mapstructure:"hist_bin_width" yaml:"hist_bin_width"`
}

// StatusChangeCfg configures the CSV-driven status change run.
type StatusChangeCfg struct {
	Status  string `mapstructure:"status" yaml:"status"`
	Comment string `mapstructure:"comment" yaml:"comment"`
}

// ReplaceCfg configures the character replacement run.
type ReplaceCfg struct {
	// Collection names the single collection the run rewrites.
	Collection string `mapstructure:"collection" yaml:"collection"`
	// SkipTitlePrefix excludes documents whose title starts with it.
	SkipTitlePrefix string            `mapstructure:"skip_title_prefix" yaml:"skip_title_prefix"`
	Replacements    map[string]string `mapstructure:"replacements" yaml:"replacements"`
	Comment         string            `mapstructure:"comment" yaml:"comment"`
}

// DownloadCfg configures the page XML export run.
type DownloadCfg struct {
	// CollectionPrefix selects collections by name prefix.
	CollectionPrefix string `mapstructure:"collection_prefix" yaml:"collection_prefix"`
	// TrainingCollections use the per-page subfolder layout and prefer
	// the newest transcript with GroundTruthStatus.
	TrainingCollections []string `mapstructure:"training_collections" yaml:"training_collections"`
	GroundTruthStatus   string   `mapstructure:"ground_truth_status" yaml:"ground_truth_status"`
	SkipTitlePrefix     string   `mapstructure:"skip_title_prefix" yaml:"skip_title_prefix"`
}

// DefaultConfig returns configuration with the platform defaults.
// Model identifiers have no sensible default and must be configured.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformCfg{
			BaseURL:              "https://transkribus.eu/TrpServer/rest",
			TimeoutSeconds:       120,
			PollIntervalSeconds:  10,
			PollTimeoutMinutes:   360,
			DownloadAttempts:     60,
			DownloadDelaySeconds: 60,
		},
		Selection: SelectionCfg{
			DropStatuses: []string{"DONE"},
		},
		RegionModel: RegionModelCfg{
			MinArea:        0.01,
			RectifyRegions: true,
		},
		Recognition: RecognitionCfg{
			LanguageModel: "trainDataLanguageModel",
			BatchSize:     10,
		},
		Validation: ValidationCfg{
			Reference:    "latest",
			HistBinWidth: 0.01,
		},
		StatusChange: StatusChangeCfg{
			Status:  "DONE",
			Comment: "Status changed.",
		},
		Replace: ReplaceCfg{
			Comment: "Special characters replaced.",
		},
		Download: DownloadCfg{
			GroundTruthStatus: "GT",
		},
	}
}
